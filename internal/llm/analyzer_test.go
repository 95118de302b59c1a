package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"emailwise/backend/internal/attachments"
	"emailwise/backend/internal/llm/contract"
	"emailwise/backend/internal/llm/providers"
)

type fakeProvider struct {
	text string
	err  error

	mu       sync.Mutex
	requests []contract.CompletionRequest
}

func (f *fakeProvider) Name() string    { return "fake" }
func (f *fakeProvider) Available() bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &contract.Completion{Text: f.text, Usage: contract.UsageRecord{Provider: "fake", Model: "fake-1", InputTokens: 10, OutputTokens: 5, TotalTokens: 15, Success: true}}, nil
}

type usageSink struct {
	mu      sync.Mutex
	records []UsageRecord
}

func (u *usageSink) InsertUsage(ctx context.Context, record UsageRecord) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.records = append(u.records, record)
	return nil
}

const urgentEmail = "Subject: Budget Review\nPlease send the report by Friday. This is urgent."

func TestAnalyzeEmailWithoutCredentials(t *testing.T) {
	analyzer := NewAnalyzer(providers.NewUnavailable("openai"), nil, 0, zerolog.Nop())
	if analyzer.Mode() != MethodLocal {
		t.Fatalf("expected local mode")
	}
	resp := analyzer.AnalyzeEmail(context.Background(), Request{Content: urgentEmail})
	if !resp.Success || resp.Data == nil {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Data.Method != MethodLocal {
		t.Fatalf("expected method local, got %q", resp.Data.Method)
	}
	if resp.Data.Subject != "Budget Review" || resp.Data.Priority != "High" {
		t.Fatalf("unexpected result %+v", resp.Data)
	}
}

func TestAnalyzeEmailRemote(t *testing.T) {
	provider := &fakeProvider{text: `{"summary":"Budget report due","sentiment":"Negative","urgency_score":9,"priority":"High"}`}
	usage := &usageSink{}
	analyzer := NewAnalyzer(provider, usage, 0, zerolog.Nop())

	resp := analyzer.AnalyzeEmail(context.Background(), Request{Content: urgentEmail, Options: Options{SummaryStyle: "brief", OutputLanguage: "French"}})
	if !resp.Success || resp.Data.Method != MethodRemote {
		t.Fatalf("expected remote result, got %+v", resp)
	}
	if resp.Data.Sentiment != "Negative (Urgent)" {
		t.Fatalf("expected urgent suffix, got %q", resp.Data.Sentiment)
	}
	if len(provider.requests) != 1 || !provider.requests[0].JSON {
		t.Fatalf("expected one JSON completion request")
	}
	if !strings.Contains(provider.requests[0].Prompt, "French") {
		t.Fatalf("expected output language in prompt")
	}
	if len(usage.records) != 1 || !usage.records[0].Success || usage.records[0].Feature != "analyze" {
		t.Fatalf("unexpected usage records %+v", usage.records)
	}
}

func TestAnalyzeEmailFallbackReasons(t *testing.T) {
	cases := []struct {
		name     string
		provider *fakeProvider
		method   string
	}{
		{"malformed", &fakeProvider{text: "I am not JSON"}, "local (invalid API response)"},
		{"empty", &fakeProvider{text: ""}, "local (empty API response)"},
		{"rate limit", &fakeProvider{err: contract.NewRemoteError("fake", contract.KindRateLimit, errors.New("429"))}, "local (API rate limit exceeded)"},
		{"auth", &fakeProvider{err: contract.NewRemoteError("fake", contract.KindAuth, errors.New("401"))}, "local (API authentication failed)"},
		{"transport", &fakeProvider{err: errors.New("connection reset")}, "local (API request failed)"},
		{"unavailable", &fakeProvider{err: contract.ErrUnavailable}, "local (API temporarily unavailable)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			usage := &usageSink{}
			analyzer := NewAnalyzer(tc.provider, usage, 0, zerolog.Nop())
			resp := analyzer.AnalyzeEmail(context.Background(), Request{Content: urgentEmail})
			if !resp.Success || resp.Data == nil {
				t.Fatalf("expected fallback success, got %+v", resp)
			}
			if resp.Data.Method != tc.method {
				t.Fatalf("expected method %q, got %q", tc.method, resp.Data.Method)
			}
			if resp.Data.Sentiment != "Urgent" {
				t.Fatalf("expected local triage, got %q", resp.Data.Sentiment)
			}
			if len(usage.records) != 1 || usage.records[0].Success {
				t.Fatalf("expected one failed usage record, got %+v", usage.records)
			}
		})
	}
}

func TestAnalyzeEmailIncludesAttachments(t *testing.T) {
	provider := &fakeProvider{text: `{}`}
	analyzer := NewAnalyzer(provider, nil, 0, zerolog.Nop())
	analyzer.AnalyzeEmail(context.Background(), Request{
		Content:     "See attached.",
		Attachments: []attachments.File{{Filename: "notes.txt", Content: strings.NewReader("quarterly totals")}},
	})
	if !strings.Contains(provider.requests[0].Prompt, "--- Attachment: notes.txt ---\nquarterly totals") {
		t.Fatalf("expected attachment text in prompt, got %q", provider.requests[0].Prompt)
	}
}

func TestAnalyzeEmailTruncatesContent(t *testing.T) {
	provider := &fakeProvider{text: `{}`}
	analyzer := NewAnalyzer(provider, nil, 100, zerolog.Nop())
	analyzer.AnalyzeEmail(context.Background(), Request{Content: strings.Repeat("x", 500)})
	if !strings.Contains(provider.requests[0].Prompt, TruncationMarker) {
		t.Fatalf("expected truncation marker in prompt")
	}
}

func TestChatWithEmail(t *testing.T) {
	local := NewAnalyzer(providers.NewUnavailable("openai"), nil, 0, zerolog.Nop())
	if got := local.ChatWithEmail(context.Background(), urgentEmail, "When is it due?"); got != chatRefusal {
		t.Fatalf("expected refusal, got %q", got)
	}

	failing := NewAnalyzer(&fakeProvider{err: errors.New("boom")}, nil, 0, zerolog.Nop())
	if got := failing.ChatWithEmail(context.Background(), urgentEmail, "When is it due?"); got != chatFailure {
		t.Fatalf("expected apology, got %q", got)
	}

	provider := &fakeProvider{text: "Friday."}
	online := NewAnalyzer(provider, nil, 0, zerolog.Nop())
	if got := online.ChatWithEmail(context.Background(), urgentEmail, "When is it due?"); got != "Friday." {
		t.Fatalf("unexpected answer %q", got)
	}
	req := provider.requests[0]
	if req.JSON || req.Feature != "chat" || !strings.Contains(req.Prompt, "When is it due?") {
		t.Fatalf("unexpected chat request %+v", req)
	}
}
