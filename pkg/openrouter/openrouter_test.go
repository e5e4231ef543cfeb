package openrouter

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConfigHeaders(t *testing.T) {
	t.Parallel()

	cfg := Config{SiteURL: " https://shop.example ", SiteName: "Shop Support"}
	headers := cfg.Headers()
	if headers["HTTP-Referer"] != "https://shop.example" {
		t.Fatalf("HTTP-Referer = %q", headers["HTTP-Referer"])
	}
	if headers["X-Title"] != "Shop Support" {
		t.Fatalf("X-Title = %q", headers["X-Title"])
	}

	if got := (Config{}).Headers(); len(got) != 0 {
		t.Fatalf("Headers() = %v, want empty", got)
	}
}

func TestHeaderTransportSetsHeaders(t *testing.T) {
	t.Parallel()

	var gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("X-Title")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client := &http.Client{Transport: headerTransport{
		headers: map[string]string{"X-Title": "Shop Support"},
		next:    http.DefaultTransport,
	}}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if gotTitle != "Shop Support" {
		t.Fatalf("X-Title = %q, want %q", gotTitle, "Shop Support")
	}
}
