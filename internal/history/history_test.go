package history

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"emailwise/backend/internal/db"
	"emailwise/backend/internal/llm"
	"emailwise/backend/internal/models"
)

func sampleResult() *llm.AnalysisResult {
	return &llm.AnalysisResult{
		Summary:     llm.Summary{Points: []string{"Report needed", "Budget review"}},
		ActionItems: []string{"Send the report"},
		Deadlines:   []string{"Friday", "by Friday"},
		Subject:     "Budget Review",
		Priority:    "High",
		Sentiment:   "Urgent",
		Method:      llm.MethodLocal,
	}
}

func TestNewRowJoinsLists(t *testing.T) {
	row, err := newRow("body", sampleResult())
	if err != nil {
		t.Fatalf("newRow: %v", err)
	}
	if row.Summary != "Report needed\nBudget review" || row.Deadlines != "Friday\nby Friday" {
		t.Fatalf("unexpected row %+v", row)
	}
	var decoded map[string]any
	if err := json.Unmarshal(row.AnalysisJSON, &decoded); err != nil {
		t.Fatalf("analysis json: %v", err)
	}
	if decoded["method"] != "local" {
		t.Fatalf("expected method in analysis json, got %v", decoded["method"])
	}
	if _, err := newRow("body", nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
}

func TestToHistoryItem(t *testing.T) {
	created := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	item := ToHistoryItem(models.EmailSummary{
		ID:           7,
		EmailContent: strings.Repeat("x", 150),
		Summary:      "One\n\nTwo",
		ActionItems:  "",
		Deadlines:    "Friday",
		CreatedAt:    created,
	})
	if item.EmailContent != strings.Repeat("x", 100)+"..." {
		t.Fatalf("unexpected preview %q", item.EmailContent)
	}
	if len(item.Summary) != 2 || len(item.ActionItems) != 0 || item.Deadlines[0] != "Friday" {
		t.Fatalf("unexpected lists %+v", item)
	}
	if item.CreatedAt != "2025-03-04 05:06:07" {
		t.Fatalf("unexpected timestamp %q", item.CreatedAt)
	}
	if short := ToHistoryItem(models.EmailSummary{EmailContent: "short"}); short.EmailContent != "short" {
		t.Fatalf("expected short content untouched, got %q", short.EmailContent)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	database, err := db.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer database.Close()
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := NewStore(database)
	id, err := store.Save(ctx, "Subject: Budget Review\nPlease send the report.", sampleResult())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Subject != "Budget Review" || got.Method != "local" {
		t.Fatalf("unexpected row %+v", got)
	}
	recent, err := store.ListRecent(ctx, 10)
	if err != nil || len(recent) == 0 || recent[0].ID != id {
		t.Fatalf("expected newest row first, got %v (%v)", recent, err)
	}
	if _, err := store.Get(ctx, -1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.InsertUsage(ctx, llm.UsageRecord{Provider: "openai", Feature: "analyze", Success: true}); err != nil {
		t.Fatalf("insert usage: %v", err)
	}
}
