package fonts

import "strings"

var serifHints = []string{
	"serif", "times", "roman", "georgia", "garamond", "baskerville", "palatino",
	"century", "bookman", "cambria", "caslon", "didot", "bodoni", "minion",
	"merriweather", "schoolbook", "nimbusrom", "playfair", "gelasio", "caladea",
	"tinos", "charter", "cormorant", "crimson", "lora", "sabon", "goudy",
}

// IsSerif guesses from the family or PostScript name whether a face has
// serifs. Names containing "sans" are never serif.
func IsSerif(name string) bool {
	n := strings.ToLower(name)
	if strings.Contains(n, "sans") || strings.Contains(n, "gothic") || strings.Contains(n, "mono") {
		return false
	}
	for _, hint := range serifHints {
		if strings.Contains(n, hint) {
			return true
		}
	}
	return false
}
