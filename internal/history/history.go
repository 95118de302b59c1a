package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emailwise/backend/internal/db"
	"emailwise/backend/internal/llm"
	"emailwise/backend/internal/models"
)

const (
	DefaultLimit  = 10
	previewLength = 100
	timeLayout    = "2006-01-02 15:04:05"
)

var ErrNotFound = errors.New("summary not found")

type Store struct {
	DB *db.Store
}

func NewStore(store *db.Store) *Store {
	return &Store{DB: store}
}

func (s *Store) Save(ctx context.Context, content string, result *llm.AnalysisResult) (int64, error) {
	row, err := newRow(content, result)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			INSERT INTO email_summaries (email_content, summary, action_items, deadlines, subject, priority, sentiment, method, analysis_json)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			row.EmailContent, row.Summary, row.ActionItems, row.Deadlines, row.Subject, row.Priority, row.Sentiment, row.Method, row.AnalysisJSON,
		).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("save summary: %w", err)
	}
	return id, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]models.EmailSummary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var items []models.EmailSummary
	err := s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, email_content, summary, action_items, deadlines, subject, priority, sentiment, method, created_at
			FROM email_summaries
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var item models.EmailSummary
			if err := rows.Scan(&item.ID, &item.EmailContent, &item.Summary, &item.ActionItems, &item.Deadlines, &item.Subject, &item.Priority, &item.Sentiment, &item.Method, &item.CreatedAt); err != nil {
				return err
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	return items, err
}

func (s *Store) Get(ctx context.Context, id int64) (*models.EmailSummary, error) {
	var item models.EmailSummary
	err := s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT id, email_content, summary, action_items, deadlines, subject, priority, sentiment, method, analysis_json, created_at
			FROM email_summaries
			WHERE id=$1`, id,
		).Scan(&item.ID, &item.EmailContent, &item.Summary, &item.ActionItems, &item.Deadlines, &item.Subject, &item.Priority, &item.Sentiment, &item.Method, &item.AnalysisJSON, &item.CreatedAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertUsage(ctx context.Context, record llm.UsageRecord) error {
	var errorMessage *string
	if record.ErrorMessage != "" {
		errorMessage = &record.ErrorMessage
	}
	return s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO llm_usage_logs (provider, model, feature, input_tokens, output_tokens, total_tokens, latency_ms, success, error_message)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			record.Provider, record.Model, record.Feature, record.InputTokens, record.OutputTokens, record.TotalTokens, record.Latency.Milliseconds(), record.Success, errorMessage)
		return err
	})
}

func newRow(content string, result *llm.AnalysisResult) (models.EmailSummary, error) {
	if result == nil {
		return models.EmailSummary{}, errors.New("nil analysis result")
	}
	analysisJSON, err := json.Marshal(result)
	if err != nil {
		return models.EmailSummary{}, fmt.Errorf("encode analysis: %w", err)
	}
	return models.EmailSummary{
		EmailContent: content,
		Summary:      result.Summary.String(),
		ActionItems:  strings.Join(result.ActionItems, "\n"),
		Deadlines:    strings.Join(result.Deadlines, "\n"),
		Subject:      result.Subject,
		Priority:     result.Priority,
		Sentiment:    result.Sentiment,
		Method:       result.Method,
		AnalysisJSON: analysisJSON,
	}, nil
}

// ToHistoryItem shapes a stored row for listing: a content preview, list
// columns split back into slices and a local timestamp.
func ToHistoryItem(row models.EmailSummary) models.HistoryItem {
	return models.HistoryItem{
		ID:           row.ID,
		EmailContent: preview(row.EmailContent),
		Summary:      splitLines(row.Summary),
		ActionItems:  splitLines(row.ActionItems),
		Deadlines:    splitLines(row.Deadlines),
		Subject:      row.Subject,
		Priority:     row.Priority,
		Sentiment:    row.Sentiment,
		Method:       row.Method,
		CreatedAt:    row.CreatedAt.Format(timeLayout),
	}
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	return string([]rune(content)[:previewLength]) + "..."
}

func splitLines(value string) []string {
	out := []string{}
	for _, line := range strings.Split(value, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
