// internal/filter/keywords.go
package filter

// KeywordTable is an ordered list of phrases under a named category.
// Order matters: tables, categories and phrases are scanned in
// declaration order and the first match wins.
type KeywordTable struct {
	Category string
	Phrases  []string
}

// Default negative tables: stories centered on harm or outrage are
// rejected before any rating call is spent on them.
var defaultNegative = []KeywordTable{
	{
		Category: "violence",
		Phrases: []string{
			"killed", "murder", "shooting", "stabbing", "assault", "robbery",
			"rape", "massacre", "gunman", "homicide", "manslaughter", "arson",
			"kidnap", "terrorist", "terrorism", "bomb", "explosion",
		},
	},
	{
		Category: "death",
		Phrases: []string{
			"death toll", "dead", "dies", "died", "fatal", "fatality",
			"tragedy", "devastating", "catastrophe", "casualties",
			"obituary", "passes away", "passed away", "rest in peace", "rip",
			"mourns", "mourning", "in memoriam", "tribute to the late",
		},
	},
	{
		Category: "conflict",
		Phrases: []string{
			"slams", "blasts", "rips", "clashes", "controversy", "scandal",
			"impeach", "indicted", "accused", "alleged fraud", "corruption",
		},
	},
	{
		Category: "negativity",
		Phrases: []string{
			"shocking", "outrage", "fury", "backlash", "sparks anger",
			"horrifying", "gruesome", "horrific", "disturbing",
		},
	},
}

// Default trivial tables: celebrity fluff and clickbait. All trivial
// sub-categories report the single category "trivial".
var defaultTrivial = []KeywordTable{
	{
		Category: "celebrity",
		Phrases: []string{
			"celebrity gossip", "influencer drama", "viral video",
			"tiktok trend", "selfie", "paparazzi", "reality tv", "red carpet",
			"award show", "box office", "blockbuster", "premiere",
			"celebrity couple", "breakup", "baby bump",
			"net worth", "mansion", "lavish", "glamour",
		},
	},
	{
		Category: "clickbait",
		Phrases: []string{
			"you won't believe", "shocking reason", "this one trick",
			"gone wrong", "epic fail", "what happens next", "doctors hate",
		},
	},
}
