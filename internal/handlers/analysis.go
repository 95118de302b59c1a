package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"emailwise/backend/internal/attachments"
	"emailwise/backend/internal/history"
	"emailwise/backend/internal/llm"
	"emailwise/backend/internal/models"
)

const (
	maxUploadBytes     = 25 << 20
	maxMemoryBytes     = 8 << 20
	maxBatchSize       = 100
	historySaveTimeout = 5 * time.Second
	errContentMissing  = "Email content is required"
)

type analyzeRequest struct {
	EmailContent   string `json:"email_content"`
	SummaryStyle   string `json:"summary_style"`
	OutputLanguage string `json:"output_language"`
	ReplyTone      string `json:"reply_tone"`
}

func (req analyzeRequest) options() llm.Options {
	return llm.Options{SummaryStyle: req.SummaryStyle, OutputLanguage: req.OutputLanguage, ReplyTone: req.ReplyTone}
}

type chatRequest struct {
	EmailContent string `json:"email_content"`
	SummaryID    int64  `json:"summary_id"`
	Query        string `json:"query"`
}

type batchRequest struct {
	Emails []analyzeRequest `json:"emails"`
}

func (a *API) AnalyzeEmail(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	var files []attachments.File

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		req = analyzeRequest{
			EmailContent:   r.FormValue("email_content"),
			SummaryStyle:   r.FormValue("summary_style"),
			OutputLanguage: r.FormValue("output_language"),
			ReplyTone:      r.FormValue("reply_tone"),
		}
		opened, closeAll, err := openUploads(r.MultipartForm.File["attachments"])
		defer closeAll()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid attachment")
			return
		}
		files = opened
	} else if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if strings.TrimSpace(req.EmailContent) == "" {
		writeError(w, http.StatusBadRequest, errContentMissing)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.Timeout)
	defer cancel()

	resp := a.Analyzer.AnalyzeEmail(ctx, llm.Request{Content: req.EmailContent, Attachments: files, Options: req.options()})
	if !resp.Success {
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	payload := map[string]any{"success": true, "data": resp.Data}
	if id, ok := a.saveHistory(ctx, req.EmailContent, resp.Data); ok {
		payload["id"] = id
	}
	writeJSON(w, http.StatusOK, payload)
}

func (a *API) saveHistory(ctx context.Context, content string, result *llm.AnalysisResult) (int64, bool) {
	if a.History == nil {
		return 0, false
	}
	// Detached from the request deadline, which a slow upstream may have used up.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()
	id, err := a.History.Save(saveCtx, content, result)
	if err != nil {
		a.Log.Error().Err(err).Msg("failed to save analysis history")
		return 0, false
	}
	if a.Hub != nil {
		a.Hub.Broadcast(map[string]any{"type": "history.created", "id": id, "method": result.Method})
	}
	return id, true
}

func openUploads(headers []*multipart.FileHeader) ([]attachments.File, func(), error) {
	var files []attachments.File
	var closers []multipart.File
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, file)
		files = append(files, attachments.File{Filename: header.Filename, Content: file})
	}
	return files, closeAll, nil
}

func (a *API) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.Timeout)
	defer cancel()

	content := req.EmailContent
	if content == "" && req.SummaryID > 0 {
		if a.History == nil {
			writeError(w, http.StatusServiceUnavailable, "history is not configured")
			return
		}
		stored, err := a.History.Get(ctx, req.SummaryID)
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "summary not found")
			return
		}
		if err != nil {
			a.Log.Error().Err(err).Int64("summary_id", req.SummaryID).Msg("failed to load summary")
			writeError(w, http.StatusInternalServerError, "failed to load summary")
			return
		}
		content = stored.EmailContent
	}
	if strings.TrimSpace(content) == "" {
		writeError(w, http.StatusBadRequest, errContentMissing)
		return
	}

	answer := a.Analyzer.ChatWithEmail(ctx, content, req.Query)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "answer": answer})
}

func (a *API) ListHistory(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not configured")
		return
	}
	rows, err := a.History.ListRecent(r.Context(), history.DefaultLimit)
	if err != nil {
		a.Log.Error().Err(err).Msg("failed to list history")
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	items := make([]models.HistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, history.ToHistoryItem(row))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": items})
}

func (a *API) BatchAnalyze(w http.ResponseWriter, r *http.Request) {
	if a.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "batch queue is not configured")
		return
	}
	var req batchRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if len(req.Emails) == 0 {
		writeError(w, http.StatusBadRequest, "emails are required")
		return
	}
	if len(req.Emails) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "batch size limit 100")
		return
	}
	for _, email := range req.Emails {
		if strings.TrimSpace(email.EmailContent) == "" {
			writeError(w, http.StatusBadRequest, errContentMissing)
			return
		}
	}

	ids := make([]uuid.UUID, 0, len(req.Emails))
	for _, email := range req.Emails {
		job, err := a.Queue.Enqueue(r.Context(), email.EmailContent, email.options())
		if err != nil {
			a.Log.Error().Err(err).Msg("failed to enqueue analysis")
			writeError(w, http.StatusInternalServerError, "failed to enqueue analysis")
			return
		}
		ids = append(ids, job.ID)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "status": llm.JobQueued, "jobs": ids})
}

func (a *API) GetJob(w http.ResponseWriter, r *http.Request, rawID string) {
	if a.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "batch queue is not configured")
		return
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	status, err := a.Queue.Status(r.Context(), id)
	if errors.Is(err, llm.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		a.Log.Error().Err(err).Str("job_id", rawID).Msg("failed to load job")
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, status)
}
