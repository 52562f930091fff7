// Package classifier performs lexical risk classification of user utterances.
// It is a pure keyword heuristic: case-insensitive substring matching against
// four disjoint-priority lexicons, crisis > high > medium > low.
package classifier

import (
	"strings"

	"backend/internal/models"
)

// The lexicons are bilingual (Spanish first, the user base is mostly
// Spanish-speaking). Terms are stored lower-cased.
var crisisTerms = []string{
	"suicid",
	"matarme",
	"quitarme la vida",
	"quiero morir",
	"no quiero vivir",
	"acabar con todo",
	"terminar con todo",
	"hacerme daño",
	"kill myself",
	"end my life",
	"want to die",
	"end it all",
}

var highTerms = []string{
	"no puedo más",
	"sin esperanza",
	"sin salida",
	"desesperado",
	"desesperada",
	"todo está mal",
	"nadie me quiere",
	"no valgo nada",
	"hopeless",
	"worthless",
	"can't go on",
	"give up",
}

var mediumTerms = []string{
	"triste",
	"deprimido",
	"deprimida",
	"ansioso",
	"ansiosa",
	"ansiedad",
	"angustia",
	"solo",
	"sola",
	"miedo",
	"preocupado",
	"preocupada",
	"cansado de todo",
	"sad",
	"depressed",
	"anxious",
	"lonely",
	"afraid",
}

var positiveTerms = []string{
	"feliz",
	"contento",
	"contenta",
	"agradecido",
	"agradecida",
	"esperanza",
	"tranquilo",
	"tranquila",
	"mejor",
	"bendecido",
	"bendecida",
	"happy",
	"grateful",
	"blessed",
	"hopeful",
}

// Classify maps free text to a risk level plus the matched evidence terms.
// The first matching tier wins; within a tier every matching term is
// collected. A crisis match short-circuits the lower tiers, so crisis
// keywords classify as crisis no matter what else the text contains.
// Empty or whitespace-only input is low risk with no evidence.
func Classify(text string) (models.RiskLevel, []string) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return models.RiskLow, nil
	}

	if terms := matchAll(lowered, crisisTerms); len(terms) > 0 {
		return models.RiskCrisis, terms
	}
	if terms := matchAll(lowered, highTerms); len(terms) > 0 {
		return models.RiskHigh, terms
	}
	if terms := matchAll(lowered, mediumTerms); len(terms) > 0 {
		return models.RiskMedium, terms
	}
	return models.RiskLow, nil
}

// DeriveMoodScore estimates a 1-10 mood score for events that did not carry
// an explicit one, from the classified risk and the positive lexicon.
func DeriveMoodScore(risk models.RiskLevel, text string) int {
	switch risk {
	case models.RiskCrisis:
		return 1
	case models.RiskHigh:
		return 2
	case models.RiskMedium:
		return 3
	}
	if len(matchAll(strings.ToLower(text), positiveTerms)) > 0 {
		return 8
	}
	return 5
}

func matchAll(lowered string, lexicon []string) []string {
	var matched []string
	for _, term := range lexicon {
		if strings.Contains(lowered, term) {
			matched = append(matched, term)
		}
	}
	return matched
}
