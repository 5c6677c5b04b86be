package optimizer

import "strings"

// fillerPhrases are replaced literally, in order. " and also " must run before "also".
var fillerPhrases = []struct {
	phrase      string
	replacement string
}{
	{" and also ", ", "},
	{"Responsible for", ""},
	{"In charge of", ""},
	{"Worked on", ""},
	{"Helped to", ""},
	{"Was able to", ""},
	{"is able to", ""},
	{"also", ""},
}

// CondenseBullet strips filler phrases and collapses whitespace.
func CondenseBullet(bullet string) string {
	out := bullet
	for _, f := range fillerPhrases {
		out = strings.ReplaceAll(out, f.phrase, f.replacement)
	}
	return strings.Join(strings.Fields(out), " ")
}
