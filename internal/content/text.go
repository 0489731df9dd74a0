package content

import "strings"

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

// FirstParagraph returns the text before the first blank line.
func FirstParagraph(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	para, _, _ := strings.Cut(body, "\n\n")
	return para
}

// Truncate shortens s to n characters and appends "..." when it was longer.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Excerpt is the first paragraph truncated to n characters.
func Excerpt(body string, n int) string {
	return Truncate(FirstParagraph(body), n)
}

// ReadingTime is word count divided by WordsPerMinute, at least one minute.
func ReadingTime(body string) int {
	return max(1, len(strings.Fields(body))/WordsPerMinute)
}

// FirstSentence returns the text up to the first ". " with a closing period.
func FirstSentence(body string) string {
	first, _, _ := strings.Cut(body, ". ")
	if strings.HasSuffix(first, ".") {
		return first
	}
	return first + "."
}

// SentenceExcerpt truncates body to n characters, preferring to end on a
// sentence boundary in the second half of the window and otherwise on the
// last word boundary followed by "...".
func SentenceExcerpt(body string, n int) string {
	r := []rune(body)
	if len(r) <= n {
		return body
	}
	window := string(r[:n])
	if i := strings.LastIndex(window, "."); i >= 0 && len([]rune(window[:i])) > n/2 {
		return window[:i+1]
	}
	if i := strings.LastIndex(window, " "); i > 0 {
		return window[:i] + "..."
	}
	return window
}
