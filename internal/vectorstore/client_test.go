package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientDisabled(t *testing.T) {
	c := NewClient(Config{BaseURL: ""})
	if c != nil {
		t.Fatal("NewClient with empty URL returned a client, want nil")
	}
	if c.IsEnabled() {
		t.Error("nil client reports enabled")
	}
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Text string `json:"text"`
			TopK int    `json:"top_k"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "net metering rules" || req.TopK != 3 {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"text": "net metering credits exported energy", "score": 0.91},
				{"text": "export tariffs vary by utility", "score": 0.78, "metadata": map[string]interface{}{"source": "faq"}},
			},
		})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	passages, err := c.Search(context.Background(), "net metering rules", 3)
	if err != nil {
		t.Fatalf("Search error = %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("passages = %d, want 2", len(passages))
	}
	if passages[0].Score != 0.91 {
		t.Errorf("first score = %v, want 0.91", passages[0].Score)
	}
	if passages[1].Metadata["source"] != "faq" {
		t.Errorf("metadata = %v", passages[1].Metadata)
	}
}

func TestSearchEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	passages, err := c.Search(context.Background(), "anything", 4)
	if err != nil {
		t.Fatalf("Search error = %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("passages = %d, want 0", len(passages))
	}
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index rebuilding", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	if _, err := c.Search(context.Background(), "anything", 4); err == nil {
		t.Fatal("Search succeeded against a failing server, want error")
	}
}
