package models

import "time"

// EmailSummary is one stored analysis. List columns hold newline-joined
// values.
type EmailSummary struct {
	ID           int64     `json:"id"`
	EmailContent string    `json:"email_content"`
	Summary      string    `json:"summary"`
	ActionItems  string    `json:"action_items"`
	Deadlines    string    `json:"deadlines"`
	Subject      string    `json:"subject"`
	Priority     string    `json:"priority"`
	Sentiment    string    `json:"sentiment"`
	Method       string    `json:"method"`
	AnalysisJSON []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type HistoryItem struct {
	ID           int64    `json:"id"`
	EmailContent string   `json:"email_content"`
	Summary      []string `json:"summary"`
	ActionItems  []string `json:"action_items"`
	Deadlines    []string `json:"deadlines"`
	Subject      string   `json:"subject"`
	Priority     string   `json:"priority"`
	Sentiment    string   `json:"sentiment"`
	Method       string   `json:"method"`
	CreatedAt    string   `json:"created_at"`
}
