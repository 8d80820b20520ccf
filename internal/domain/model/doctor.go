package model

import "strings"

// Doctor is one roster entry. Keywords are lower-case condition fragments
// the doctor is suggested for.
type Doctor struct {
	Name      string   `json:"name"`
	Specialty string   `json:"specialty"`
	Room      string   `json:"room"`
	Keywords  []string `json:"keywords"`
}

// Treats reports whether any keyword occurs in condition, ignoring case.
func (d Doctor) Treats(condition string) bool {
	c := strings.ToLower(condition)
	for _, k := range d.Keywords {
		if k != "" && strings.Contains(c, k) {
			return true
		}
	}
	return false
}

// ParseKeywords splits the stored comma-separated keyword list.
func ParseKeywords(s string) []string {
	out := []string{}
	for _, k := range strings.Split(s, ",") {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// JoinKeywords renders keywords in their stored form.
func JoinKeywords(keywords []string) string {
	return strings.Join(keywords, ",")
}
