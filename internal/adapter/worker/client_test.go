package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string) *Client {
	return NewClientWithURL(url, 5*time.Second, 2*time.Second, newTestLogger())
}

func strPtr(s string) *string { return &s }

func TestClient_Health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "ok", status: http.StatusOK, want: true},
		{name: "no content", status: http.StatusNoContent, want: true},
		{name: "server error", status: http.StatusInternalServerError, want: false},
		{name: "not found", status: http.StatusNotFound, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			if got := c.Health(context.Background()); got != tt.want {
				t.Errorf("Health() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_Health_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL)
	if c.Health(context.Background()) {
		t.Error("Health() = true for closed server, want false")
	}
}

func TestClient_DetectLanguage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect-language" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "bonjour le monde" {
			t.Errorf("request text = %q", req.Text)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"language": "fr"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	lang, err := c.DetectLanguage(context.Background(), "bonjour le monde")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lang != "fr" {
		t.Errorf("language = %q, want %q", lang, "fr")
	}
}

func TestClient_Translate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text           string  `json:"text"`
			SourceLanguage *string `json:"source_language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SourceLanguage == nil || *req.SourceLanguage != "fr" {
			t.Errorf("source_language = %v, want fr", req.SourceLanguage)
		}
		w.Write([]byte(`{"translated_text": "hello world"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.Translate(context.Background(), "bonjour le monde", strPtr("fr"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world" {
		t.Errorf("translation = %q, want %q", got, "hello world")
	}
}

func TestClient_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding": [0.1, 0.2, 0.3]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	vec, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("len(vec) = %d, want 3", len(vec))
	}
	if vec[1] != 0.2 {
		t.Errorf("vec[1] = %v, want 0.2", vec[1])
	}
}

func TestClient_ProcessBatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts           []string  `json:"texts"`
			SourceLanguages []*string `json:"source_languages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Texts) != 2 {
			t.Fatalf("len(texts) = %d, want 2", len(req.Texts))
		}
		if len(req.SourceLanguages) != 2 || req.SourceLanguages[1] != nil {
			t.Errorf("source_languages = %v, want [fr nil]", req.SourceLanguages)
		}
		w.Write([]byte(`{"results": [
			{"translated_text": "great coffee", "embedding": [0.1, 0.2], "language": "fr"},
			{"translated_text": "nice view", "embedding": [0.3, 0.4], "language": "en"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	results, err := c.ProcessBatch(context.Background(),
		[]string{"超好喝的咖啡", "nice view"},
		[]*string{strPtr("fr"), nil},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].TranslatedText != "great coffee" {
		t.Errorf("results[0].TranslatedText = %q", results[0].TranslatedText)
	}
	if results[1].Language != "en" {
		t.Errorf("results[1].Language = %q, want en", results[1].Language)
	}
}

func TestClient_ProcessBatch_Empty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called for an empty batch")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	results, err := c.ProcessBatch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestClient_ProcessBatch_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [
			{"translated_text": "only one", "embedding": [0.1], "language": "en"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.ProcessBatch(context.Background(), []string{"a", "b"}, nil)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestClient_RemoteError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "model not loaded"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("error = %v, want ErrRemote", err)
	}

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error does not unwrap to *RemoteError: %v", err)
	}
	if remoteErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", remoteErr.Status)
	}
	if remoteErr.Message != "model not loaded" {
		t.Errorf("Message = %q, want %q", remoteErr.Message, "model not loaded")
	}
}

func TestClient_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translated_text": `))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Translate(context.Background(), "hello", nil)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"language": "en"}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, 50*time.Millisecond, 50*time.Millisecond, newTestLogger())
	_, err := c.Translate(context.Background(), "hello", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("error = %v, want ErrUnreachable", err)
	}
}
