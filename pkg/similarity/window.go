package similarity

import (
	"math"
	"strings"
	"unicode/utf8"
)

// AverageLineLength estimates a body-comparison window from two bodies.
// It averages the length in code points of every non-empty line of both
// inputs, indentation included, rounds to the nearest integer and never
// returns less than 1. A trailing "\r" is not part of a line.
func AverageLineLength(a, b string) int {
	var total, lines int
	for _, body := range [2]string{a, b} {
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSuffix(line, "\r")
			if line == "" {
				continue
			}
			total += utf8.RuneCountInString(line)
			lines++
		}
	}
	if lines == 0 {
		return 1
	}
	avg := int(math.Round(float64(total) / float64(lines)))
	return max(avg, 1)
}
