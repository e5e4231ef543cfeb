package assemblyai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

type fakeAPI struct {
	polls        atomic.Int32
	pendingPolls int32
	final        Transcript
	uploaded     []byte
	gotRequest   transcriptRequest
	gotAuth      string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload", func(w http.ResponseWriter, r *http.Request) {
		f.gotAuth = r.Header.Get("Authorization")
		f.uploaded, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"upload_url":"https://cdn.example/audio/1"}`)
	})
	mux.HandleFunc("/v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&f.gotRequest); err != nil {
			t.Errorf("decode transcript request: %v", err)
		}
		fmt.Fprint(w, `{"id":"tr_1","status":"queued"}`)
	})
	mux.HandleFunc("/v2/transcript/tr_1", func(w http.ResponseWriter, r *http.Request) {
		n := f.polls.Add(1)
		if n <= f.pendingPolls {
			fmt.Fprint(w, `{"id":"tr_1","status":"processing"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(f.final)
	})
	return mux
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{
		BaseURL:      server.URL,
		APIKey:       "key",
		LanguageCode: "en",
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestTranscribePollsUntilCompleted(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		pendingPolls: 2,
		final:        Transcript{ID: "tr_1", Status: "completed", Text: "Where is order 5?"},
	}
	client := newTestClient(t, api.handler(t))

	text, err := client.Transcribe(context.Background(), []byte("RIFFdata"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "Where is order 5?" {
		t.Fatalf("text = %q", text)
	}
	if got := api.polls.Load(); got != 3 {
		t.Fatalf("polls = %d, want 3", got)
	}
	if string(api.uploaded) != "RIFFdata" {
		t.Fatalf("uploaded = %q", api.uploaded)
	}
	if api.gotAuth != "key" {
		t.Fatalf("Authorization = %q", api.gotAuth)
	}
	if api.gotRequest.AudioURL != "https://cdn.example/audio/1" || api.gotRequest.LanguageCode != "en" {
		t.Fatalf("transcript request = %+v", api.gotRequest)
	}
}

func TestTranscribeErrorStatus(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{final: Transcript{ID: "tr_1", Status: "error", Error: "audio too short"}}
	client := newTestClient(t, api.handler(t))

	_, err := client.Transcribe(context.Background(), []byte("x"))
	if !errors.Is(err, contractx.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
	if !strings.Contains(err.Error(), "audio too short") {
		t.Fatalf("error = %v, want API message", err)
	}
}

func TestTranscribeUploadFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Authentication error"}`, http.StatusUnauthorized)
	}))

	_, err := client.Transcribe(context.Background(), []byte("x"))
	if !errors.Is(err, contractx.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}

func TestTranscribeStopsOnCancel(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{pendingPolls: 1 << 30}
	client := newTestClient(t, api.handler(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Transcribe(ctx, []byte("x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	t.Parallel()

	client := MustNew(Config{APIKey: "key"})
	if _, err := client.Transcribe(context.Background(), nil); !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("error = %v, want ErrEmptyAudio", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "https://api.assemblyai.com"}); err == nil {
		t.Fatal("NewClient() without api key must fail")
	}
}
