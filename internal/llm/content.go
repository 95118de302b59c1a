package llm

const (
	DefaultMaxContentLength = 50000
	TruncationMarker        = "\n...[Content Truncated]...\n"
)

// PrepareContent appends extracted attachment text to the email body and caps
// the result at maxLength runes. Oversized content keeps the first 20% and
// the last 80% of the budget, since the latest replies sit at the tail of a
// thread.
func PrepareContent(email, attachmentText string, maxLength int) string {
	return SmartTruncate(email+attachmentText, maxLength)
}

func SmartTruncate(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxContentLength
	}
	if len(content) <= maxLength {
		return content
	}
	runes := []rune(content)
	if len(runes) <= maxLength {
		return content
	}
	headLen := int(float64(maxLength) * 0.2)
	tailLen := int(float64(maxLength) * 0.8)
	return string(runes[:headLen]) + TruncationMarker + string(runes[len(runes)-tailLen:])
}
