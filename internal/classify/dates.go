package classify

import "time"

// dateLayouts mirrors the flexible date parsing the reference
// implementation's utility-bill parser used, trimmed to the layouts that
// actually appear in GHG activity spreadsheets.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
}

// looksLikeDate reports whether s parses under any recognized date layout.
func looksLikeDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
