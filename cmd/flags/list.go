package flags

import "strings"

const listCutset = " \t\r\n\b"

// SplitList splits a comma separated flag value, trimming whitespace around
// every element and dropping empty ones.
func SplitList(s string) []string {
	if s == "" {
		return []string{}
	}

	spl := strings.Split(s, ",")
	out := make([]string, 0, len(spl))
	for _, element := range spl {
		element = strings.Trim(element, listCutset)
		if element != "" {
			out = append(out, element)
		}
	}
	return out
}
