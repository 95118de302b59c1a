package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	defaultSummary     = "No summary available."
	defaultSubject     = "No Subject"
	defaultPriority    = "Medium"
	defaultSentiment   = "Neutral"
	defaultIntent      = "General"
	defaultUrgency     = 5
	defaultConfidence  = 90
	defaultSpamReason  = "No anomalies."
	replyFailureText   = "Could not generate reply."
	urgentSuffix       = " (Urgent)"
	urgentScoreCeiling = 7
)

var errNotObject = errors.New("response is not a JSON object")

func defaultReplies() map[string]Reply {
	return map[string]Reply{
		"option_1": {Label: "Draft", Text: replyFailureText},
		"option_2": {Label: "Alt", Text: replyFailureText},
	}
}

// decodeAnalysis parses a model response into an AnalysisResult. Only a body
// that is not a JSON object is an error; every missing, null or mistyped field
// falls back to its documented default.
func decodeAnalysis(raw string) (*AnalysisResult, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if fields == nil {
		return nil, errNotObject
	}

	result := &AnalysisResult{
		Summary:          decodeSummary(fields["summary"]),
		ActionItems:      decodeStrings(fields["action_items"]),
		Deadlines:        decodeStrings(fields["deadlines"]),
		Subject:          decodeString(fields["subject"], defaultSubject),
		Priority:         decodeString(fields["priority"], defaultPriority),
		Sentiment:        decodeString(fields["sentiment"], defaultSentiment),
		SuggestedReplies: decodeReplies(fields["suggested_replies"]),
		Intent:           decodeString(fields["intent"], defaultIntent),
		UrgencyScore:     decodeInt(fields["urgency_score"], defaultUrgency, 1, 10),
		ConfidenceScore:  decodeConfidence(fields["confidence_score"]),
		SpamAnalysis:     decodeSpam(fields["spam_analysis"]),
		DecisionHelper:   decodeDecision(fields["decision_helper"]),
	}
	if result.UrgencyScore > urgentScoreCeiling {
		result.Sentiment += urgentSuffix
	}
	return result, nil
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func decodeString(raw json.RawMessage, fallback string) string {
	if !present(raw) {
		return fallback
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return fallback
	}
	return value
}

func decodeStrings(raw json.RawMessage) []string {
	out := []string{}
	if !present(raw) {
		return out
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single != "" {
			out = append(out, single)
		}
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		if !present(item) {
			continue
		}
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			out = append(out, text)
			continue
		}
		out = append(out, string(bytes.TrimSpace(item)))
	}
	return out
}

func decodeSummary(raw json.RawMessage) Summary {
	if !present(raw) {
		return Summary{Text: defaultSummary}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return Summary{Text: text}
	}
	points := decodeStrings(raw)
	if len(points) == 0 {
		return Summary{Text: defaultSummary}
	}
	return Summary{Points: points}
}

func decodeNumber(raw json.RawMessage) (float64, string, bool) {
	if !present(raw) {
		return 0, "", false
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		value, err := number.Float64()
		return value, number.String(), err == nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, "", false
	}
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	value, err := strconv.ParseFloat(text, 64)
	return value, text, err == nil
}

// decodeInt bounds the float before converting; out-of-range float to int
// conversion is implementation defined.
func decodeInt(raw json.RawMessage, fallback, low, high int) int {
	value, _, ok := decodeNumber(raw)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return fallback
	}
	return int(math.Round(clampFloat(value, low, high)))
}

func clampFloat(value float64, low, high int) float64 {
	return math.Min(math.Max(value, float64(low)), float64(high))
}

// decodeConfidence keeps confidence on a 0-100 integer scale. Fractional
// values at or below 1 are read as ratios.
func decodeConfidence(raw json.RawMessage) int {
	value, literal, ok := decodeNumber(raw)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return defaultConfidence
	}
	if strings.Contains(literal, ".") && value <= 1 {
		value *= 100
	}
	return int(math.Round(clampFloat(value, 0, 100)))
}

func decodeReplies(raw json.RawMessage) map[string]Reply {
	if !present(raw) {
		return defaultReplies()
	}
	var replies map[string]Reply
	if err := json.Unmarshal(raw, &replies); err != nil || len(replies) == 0 {
		return defaultReplies()
	}
	return replies
}

func decodeSpam(raw json.RawMessage) SpamAnalysis {
	spam := SpamAnalysis{IsSpam: false, Reason: defaultSpamReason}
	if !present(raw) {
		return spam
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return spam
	}
	if value, ok := fields["is_spam"]; ok && present(value) {
		var flag bool
		if err := json.Unmarshal(value, &flag); err == nil {
			spam.IsSpam = flag
		} else {
			spam.IsSpam = strings.EqualFold(decodeString(value, ""), "true")
		}
	}
	spam.Reason = decodeString(fields["reason"], defaultSpamReason)
	return spam
}

func decodeDecision(raw json.RawMessage) DecisionHelper {
	var fields map[string]json.RawMessage
	if present(raw) {
		_ = json.Unmarshal(raw, &fields)
	}
	return DecisionHelper{
		Pros:  decodeStrings(fields["pros"]),
		Cons:  decodeStrings(fields["cons"]),
		Risks: decodeStrings(fields["risks"]),
	}
}
