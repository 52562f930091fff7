package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backend/internal/models"
)

func TestClassifyCrisisTerms(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"spanish ending it all", "quiero acabar con todo"},
		{"spanish wanting to die", "ya no quiero vivir más"},
		{"english", "I just want to end my life"},
		{"uppercase", "QUIERO MORIR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk, evidence := Classify(tt.text)
			assert.Equal(t, models.RiskCrisis, risk)
			assert.NotEmpty(t, evidence)
		})
	}
}

func TestClassifyCrisisBeatsPositiveTerms(t *testing.T) {
	// Crisis keywords classify as crisis even when positive terms co-occur.
	risk, evidence := Classify("estoy agradecido pero quiero acabar con todo")
	assert.Equal(t, models.RiskCrisis, risk)
	assert.Contains(t, evidence, "acabar con todo")
}

func TestClassifyTierPrecedence(t *testing.T) {
	risk, _ := Classify("me siento triste y sin esperanza")
	// high tier matched, medium terms are not collected
	assert.Equal(t, models.RiskHigh, risk)

	risk, evidence := Classify("estoy triste y ansioso")
	assert.Equal(t, models.RiskMedium, risk)
	assert.ElementsMatch(t, []string{"triste", "ansioso"}, evidence)
}

func TestClassifyCollectsAllTermsWithinTier(t *testing.T) {
	_, evidence := Classify("quiero morir, quiero acabar con todo")
	assert.Contains(t, evidence, "quiero morir")
	assert.Contains(t, evidence, "acabar con todo")
}

func TestClassifyEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		risk, evidence := Classify(text)
		assert.Equal(t, models.RiskLow, risk)
		assert.Empty(t, evidence)
	}
}

func TestClassifyNeutralText(t *testing.T) {
	risk, evidence := Classify("hoy fui al trabajo en bicicleta")
	assert.Equal(t, models.RiskLow, risk)
	assert.Empty(t, evidence)
}

func TestDeriveMoodScore(t *testing.T) {
	assert.Equal(t, 1, DeriveMoodScore(models.RiskCrisis, "quiero acabar con todo"))
	assert.Equal(t, 2, DeriveMoodScore(models.RiskHigh, "sin esperanza"))
	assert.Equal(t, 3, DeriveMoodScore(models.RiskMedium, "triste"))
	assert.Equal(t, 8, DeriveMoodScore(models.RiskLow, "me siento muy feliz hoy"))
	assert.Equal(t, 5, DeriveMoodScore(models.RiskLow, "hoy fui al trabajo"))
}
