package llm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxSummaryPoints     = 4
	maxFallbackSentences = 3
	summaryScanLimit     = 10
	minSentenceLength    = 20
	minActionLength      = 10
	maxActionLength      = 200
	maxActionItems       = 5
	minDeadlineLength    = 4
	maxDeadlines         = 5

	unknownSubject  = "Unknown Subject"
	repliesUpsell   = "Please configure API key for advanced replies."
	localSpamReason = "Local mode check pass."
)

var (
	urgentWords  = []string{"urgent", "asap"}
	summaryWords = []string{"please", "need", "require", "important", "urgent", "meeting", "deadline", "due", "schedule", "project", "task", "action"}

	sentenceSplit = regexp.MustCompile(`[.!?]+`)

	actionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:please|could you|can you|need to|should|must|have to)\s+[^.!?\n]+`),
		regexp.MustCompile(`(?i)\b(?:action items?|tasks?|todos?|to do)\s*:\s*[^.!?\n]+`),
		regexp.MustCompile(`(?i)\b(?:follow up|complete|finish|submit|send|prepare)\b[^.!?\n]+`),
	}

	months      = `January|February|March|April|May|June|July|August|September|October|November|December`
	shortMonths = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec`
	weekdays    = `Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday`
	ordinal     = `(?:st|nd|rd|th)?`

	deadlinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
		regexp.MustCompile(`(?i)\b(?:` + months + `)\s+\d{1,2}` + ordinal + `,?\s+\d{4}\b`),
		regexp.MustCompile(`(?i)\b(?:` + shortMonths + `)\.?\s+\d{1,2}` + ordinal + `,?\s+\d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}` + ordinal + `\s+(?:` + months + `|` + shortMonths + `)\.?,?\s+\d{4}\b`),
		regexp.MustCompile(`(?i)\b(?:` + weekdays + `)\b`),
		regexp.MustCompile(`(?i)\b(?:tomorrow|today|next week|this week|next month|end of (?:the )?week|eow)\b`),
		regexp.MustCompile(`(?i)\b(?:due|deadline|by|before|until)\s*:?\s+(?:(?:` + weekdays + `|tomorrow|today|tonight|noon|midnight|eod|eow|cob)\b|end of (?:the )?(?:day|week|month)\b|(?:next|this)\s+[a-z]+\b|(?:` + months + `|` + shortMonths + `)\.?\s+\d{1,2}` + ordinal + `\b|\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b)`),
	}
)

// ExtractLocally runs the deterministic summary, action item and deadline
// extractors over text.
func ExtractLocally(text string) Extraction {
	return Extraction{
		Summary:     extractSummary(text),
		ActionItems: extractActionItems(text),
		Deadlines:   extractDeadlines(text),
	}
}

func analyzeLocally(text string, opts Options) *AnalysisResult {
	extraction := ExtractLocally(text)
	urgent := containsAny(strings.ToLower(text), urgentWords)

	priority, sentiment, urgency := "Medium", "Neutral", 3
	if urgent {
		priority, sentiment, urgency = "High", "Urgent", 8
	}
	intent := "Statement"
	if strings.Contains(text, "?") {
		intent = "Request"
	}

	summary := Summary{Points: extraction.Summary}
	if len(summary.Points) == 0 {
		summary = Summary{Text: defaultSummary}
	}

	return &AnalysisResult{
		Summary:     summary,
		ActionItems: extraction.ActionItems,
		Deadlines:   extraction.Deadlines,
		Subject:     extractSubject(text),
		Priority:    priority,
		Sentiment:   sentiment,
		SuggestedReplies: map[string]Reply{
			"option_1": {Label: "Offline Reply", Text: localReply(opts.ReplyTone)},
			"option_2": {Label: "Placeholder", Text: repliesUpsell},
		},
		Intent:          intent,
		UrgencyScore:    urgency,
		ConfidenceScore: 100,
		SpamAnalysis:    SpamAnalysis{IsSpam: false, Reason: localSpamReason},
		DecisionHelper: DecisionHelper{
			Pros:  []string{"Offline privacy", "Instant result"},
			Cons:  []string{"Limited insight", "No semantic understanding"},
			Risks: []string{"May miss nuances"},
		},
		Method: MethodLocal,
	}
}

func extractSubject(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "Subject:") {
			return strings.TrimSpace(strings.Replace(line, "Subject:", "", 1))
		}
	}
	return unknownSubject
}

func localReply(tone string) string {
	switch tone {
	case "strict":
		return "Noted. Will process."
	case "friendly":
		return "Got it! Thanks for sending this over. I'll take a look!"
	default:
		return "Received. I will review and respond shortly."
	}
}

func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		sentence := strings.Join(strings.Fields(part), " ")
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}

func extractSummary(text string) []string {
	sentences := splitSentences(text)
	points := []string{}

	scan := sentences
	if len(scan) > summaryScanLimit {
		scan = scan[:summaryScanLimit]
	}
	for _, sentence := range scan {
		if utf8.RuneCountInString(sentence) <= minSentenceLength {
			continue
		}
		if !containsAny(strings.ToLower(sentence), summaryWords) {
			continue
		}
		points = append(points, capitalize(sentence))
		if len(points) == maxSummaryPoints {
			return points
		}
	}
	if len(points) > 0 {
		return points
	}

	for _, sentence := range sentences {
		if utf8.RuneCountInString(sentence) <= minSentenceLength {
			continue
		}
		points = append(points, capitalize(sentence))
		if len(points) == maxFallbackSentences {
			break
		}
	}
	return points
}

func extractActionItems(text string) []string {
	var matches []string
	for _, pattern := range actionPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			match = strings.TrimSpace(match)
			length := utf8.RuneCountInString(match)
			if length <= minActionLength || length >= maxActionLength {
				continue
			}
			matches = append(matches, capitalize(match))
		}
	}
	return dedupeFold(matches, maxActionItems)
}

func extractDeadlines(text string) []string {
	var matches []string
	for _, pattern := range deadlinePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			match = strings.Join(strings.Fields(match), " ")
			if utf8.RuneCountInString(match) < minDeadlineLength {
				continue
			}
			matches = append(matches, match)
		}
	}
	return dedupeFold(matches, maxDeadlines)
}

// dedupeFold drops case-insensitive repeats, keeping first-seen order.
func dedupeFold(items []string, limit int) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, item := range items {
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

func capitalize(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
