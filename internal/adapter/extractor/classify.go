package extractor

import (
	"strings"

	"github.com/tzhao11/lectern/internal/domain"
)

// Keyword tables for content type detection, scored by occurrence count.
var contentTypeKeywords = map[string][]string{
	"science": {
		"hypothesis", "experiment", "molecule", "cell", "atom", "physics",
		"chemistry", "biology", "evolution", "dna", "quantum", "electron",
		"gravity", "mass", "energy", "reaction", "compound", "organism",
	},
	"history": {
		"century", "war", "revolution", "empire", "dynasty", "era", "civilization",
		"treaty", "battle", "king", "queen", "president", "ancient", "medieval",
		"colonial", "independence", "movement", "reform",
	},
	"business": {
		"revenue", "profit", "market", "startup", "ceo", "strategy", "investment",
		"stock", "valuation", "growth", "customer", "product", "sales", "marketing",
		"management", "leadership", "disruption", "innovation",
	},
	"tech": {
		"api", "framework", "library", "algorithm", "code", "database", "server",
		"frontend", "backend", "cloud", "deployment", "software", "hardware",
		"programming", "machine learning", "artificial intelligence", "neural network",
	},
	"math": {
		"theorem", "proof", "equation", "calculus", "algebra", "geometry",
		"derivative", "integral", "function", "variable", "matrix", "vector",
		"probability", "statistics", "limit", "infinity",
	},
}

// A type needs at least this many keyword hits to beat the general fallback.
const minKeywordMatches = 3

// Classify detects the content type of a transcript from keyword frequency.
func Classify(transcript string) domain.Classification {
	lower := strings.ToLower(transcript)

	bestType := "general"
	bestMatched := []string{}

	for contentType, keywords := range contentTypeKeywords {
		var matched []string
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) >= minKeywordMatches && len(matched) > len(bestMatched) {
			bestType = contentType
			bestMatched = matched
		}
	}

	confidence := 0.5
	if bestType != "general" {
		confidence = 0.5 + 0.05*float64(len(bestMatched))
		if confidence > 0.95 {
			confidence = 0.95
		}
	}

	return domain.Classification{
		PrimaryType: bestType,
		Confidence:  confidence,
		Matched:     bestMatched,
	}
}
