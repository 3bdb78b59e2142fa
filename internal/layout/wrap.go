package layout

import "strings"

// Wrap breaks text into lines whose measured width does not exceed width.
// Lines break only at whitespace and explicit newlines start a new line, so
// a word is never split; a single word wider than width occupies a line of
// its own. Runs of whitespace inside a line collapse to one space.
func Wrap(text string, width float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if measure(candidate) <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}
