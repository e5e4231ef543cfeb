package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveTool("LookupOrder", OutcomeOK)
	m.ObserveTool("LookupOrder", OutcomeOK)
	m.ObserveTool("ProcessReturn", OutcomeFailed)
	m.ObserveTurn("text", OutcomeOK)

	out := scrape(t, m)
	for _, want := range []string{
		`support_chat_tool_calls_total{outcome="ok",tool="LookupOrder"} 2`,
		`support_chat_tool_calls_total{outcome="failed",tool="ProcessReturn"} 1`,
		`support_chat_turns_total{channel="text",outcome="ok"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestHandlerExposesSeries(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHTTP("POST", "/send_message", 200, 20*time.Millisecond)
	m.ObserveTranscription(3*time.Second, errors.New("boom"))

	body := scrape(t, m)
	for _, want := range []string{
		`support_chat_http_requests_total{code="200",method="POST",route="/send_message"} 1`,
		`support_chat_transcription_seconds_count{outcome="error"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveTool("x", OutcomeOK)
	m.ObserveTurn("text", OutcomeOK)
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.ObserveTranscription(time.Second, nil)
	if m.Registry() != nil {
		t.Fatal("nil metrics must have nil registry")
	}
}
