package llm

import (
	"bytes"
	"encoding/json"
	"strings"

	"emailwise/backend/internal/attachments"
	"emailwise/backend/internal/llm/contract"
)

type Provider = contract.Provider

type ProviderConfig = contract.ProviderConfig

type UsageRecord = contract.UsageRecord

const (
	StyleDetailed = "detailed"
	StyleQuick    = "quick"
	StyleBrief    = "brief"

	DefaultLanguage = "english"
	DefaultTone     = "professional"
)

type Options struct {
	SummaryStyle   string `json:"summary_style"`
	OutputLanguage string `json:"output_language"`
	ReplyTone      string `json:"reply_tone"`
}

// Normalize fills unset options and maps unknown summary styles to detailed.
func (o Options) Normalize() Options {
	style := strings.ToLower(strings.TrimSpace(o.SummaryStyle))
	switch style {
	case StyleDetailed, StyleQuick, StyleBrief:
	default:
		style = StyleDetailed
	}
	language := strings.TrimSpace(o.OutputLanguage)
	if language == "" {
		language = DefaultLanguage
	}
	tone := strings.ToLower(strings.TrimSpace(o.ReplyTone))
	if tone == "" {
		tone = DefaultTone
	}
	return Options{SummaryStyle: style, OutputLanguage: language, ReplyTone: tone}
}

type Request struct {
	Content     string
	Attachments []attachments.File
	Options     Options
}

// Summary is either free text or an ordered list of bullet points. It encodes
// as a JSON string or array accordingly.
type Summary struct {
	Text   string
	Points []string
}

func (s Summary) Lines() []string {
	if len(s.Points) > 0 {
		return s.Points
	}
	if s.Text == "" {
		return []string{}
	}
	return strings.Split(s.Text, "\n")
}

func (s Summary) String() string {
	return strings.Join(s.Lines(), "\n")
}

func (s Summary) MarshalJSON() ([]byte, error) {
	if len(s.Points) > 0 {
		return json.Marshal(s.Points)
	}
	return json.Marshal(s.Text)
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var points []string
		if err := json.Unmarshal(data, &points); err != nil {
			return err
		}
		*s = Summary{Points: points}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*s = Summary{Text: text}
	return nil
}

type Reply struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type SpamAnalysis struct {
	IsSpam bool   `json:"is_spam"`
	Reason string `json:"reason"`
}

type DecisionHelper struct {
	Pros  []string `json:"pros"`
	Cons  []string `json:"cons"`
	Risks []string `json:"risks"`
}

type AnalysisResult struct {
	Summary          Summary          `json:"summary"`
	ActionItems      []string         `json:"action_items"`
	Deadlines        []string         `json:"deadlines"`
	Subject          string           `json:"subject"`
	Priority         string           `json:"priority"`
	Sentiment        string           `json:"sentiment"`
	SuggestedReplies map[string]Reply `json:"suggested_replies"`
	Intent           string           `json:"intent"`
	UrgencyScore     int              `json:"urgency_score"`
	ConfidenceScore  int              `json:"confidence_score"`
	SpamAnalysis     SpamAnalysis     `json:"spam_analysis"`
	DecisionHelper   DecisionHelper   `json:"decision_helper"`
	Method           string           `json:"method"`
}

type AnalysisResponse struct {
	Success bool            `json:"success"`
	Data    *AnalysisResult `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Extraction is the minimal summary/action/deadline shape produced by the
// local extractor.
type Extraction struct {
	Summary     []string `json:"summary"`
	ActionItems []string `json:"action_items"`
	Deadlines   []string `json:"deadlines"`
}
