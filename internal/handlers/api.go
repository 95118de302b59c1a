package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"emailwise/backend/internal/llm"
	"emailwise/backend/internal/models"
)

type EmailAnalyzer interface {
	AnalyzeEmail(ctx context.Context, req llm.Request) *llm.AnalysisResponse
	ChatWithEmail(ctx context.Context, content, query string) string
	Mode() string
}

type HistoryStore interface {
	Save(ctx context.Context, content string, result *llm.AnalysisResult) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]models.EmailSummary, error)
	Get(ctx context.Context, id int64) (*models.EmailSummary, error)
}

type JobQueue interface {
	Enqueue(ctx context.Context, content string, opts llm.Options) (llm.Job, error)
	Status(ctx context.Context, id uuid.UUID) (*llm.JobStatus, error)
}

// API serves the analysis endpoints. History, Queue and Hub are optional and
// must be left nil when the backing service is not configured.
type API struct {
	Analyzer EmailAnalyzer
	History  HistoryStore
	Queue    JobQueue
	Hub      llm.Broadcaster
	Log      zerolog.Logger
	Timeout  time.Duration
}

func NewAPI(analyzer EmailAnalyzer, log zerolog.Logger, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &API{Analyzer: analyzer, Log: log.With().Str("component", "api").Logger(), Timeout: timeout}
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"mode":    a.Analyzer.Mode(),
		"history": a.History != nil,
		"queue":   a.Queue != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func readJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func ParseID(pathPart string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(pathPart), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
