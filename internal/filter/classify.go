// internal/filter/classify.go
package filter

import "strings"

// categoryKeywords maps content categories to indicative phrases,
// scanned in order. Lightweight by design: classification never costs a
// rating call.
var categoryKeywords = []KeywordTable{
	{
		Category: "science",
		Phrases: []string{
			"research", "study finds", "scientists", "discovery", "breakthrough",
			"physics", "astronomy", "nasa", "space",
		},
	},
	{
		Category: "health",
		Phrases: []string{
			"health", "medical", "medicine", "vaccine", "treatment", "therapy",
			"cancer", "hospital", "patients", "clinical trial",
		},
	},
	{
		Category: "environment",
		Phrases: []string{
			"climate", "environment", "renewable", "solar", "wind power",
			"conservation", "wildlife", "reforestation", "recycling",
			"clean energy", "emissions",
		},
	},
	{
		Category: "community",
		Phrases: []string{
			"community", "volunteer", "charity", "donated", "fundraiser",
			"neighbors", "local hero", "nonprofit",
		},
	},
	{
		Category: "technology",
		Phrases: []string{
			"technology", "innovation", "startup", "software", "robot",
			"artificial intelligence", "engineering",
		},
	},
	{
		Category: "education",
		Phrases: []string{
			"school", "students", "education", "scholarship", "teachers",
			"university", "literacy",
		},
	},
}

// Classify assigns a content category from headline and summary keywords.
// Returns "" when nothing matches. Pure function.
func Classify(headline, summary string) string {
	text := strings.ToLower(headline + " " + summary)

	for _, table := range categoryKeywords {
		if matchPhrase(text, table.Phrases) != "" {
			return table.Category
		}
	}
	return ""
}
