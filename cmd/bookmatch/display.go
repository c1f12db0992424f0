package main

import "strings"

const wrapWidth = 70

// bullet renders "• text" word-wrapped to width with a two-space hanging
// indent. Words longer than a line are left unbroken.
func bullet(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "•"
	}

	var b strings.Builder
	line := "• " + words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			b.WriteString(line)
			b.WriteByte('\n')
			line = "  " + w
			continue
		}
		line += " " + w
	}
	b.WriteString(line)
	return b.String()
}
