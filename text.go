package main

import (
	"fmt"
)

const scrollSeparator = "  •  "

// formatTime converts seconds to MM:SS format
func formatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// scrollText returns a scrolling window of text with smooth looping
func scrollText(text string, max int, offset int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	fullText := append(runes, []rune(scrollSeparator)...)
	textLen := len(fullText)
	offset = offset % textLen

	result := make([]rune, 0, max)
	for i := 0; i < max; i++ {
		result = append(result, fullText[(offset+i)%textLen])
	}
	return string(result)
}

// scrollLoop is the offset at which a scrolled text has wrapped once, zero
// when none of texts needs scrolling.
func scrollLoop(width int, texts ...string) int {
	longest := 0
	for _, t := range texts {
		longest = max(longest, len([]rune(t)))
	}
	if longest <= width {
		return 0
	}
	return longest + len([]rune(scrollSeparator))
}
