package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateSync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("sync request asked for streaming")
		}
		if req.Model != "test-model" {
			t.Errorf("model = %s", req.Model)
		}
		json.NewEncoder(w).Encode(generateResponse{
			Model:        req.Model,
			Response:     "a 5 kW system produces about 20 kWh per day",
			Done:         true,
			EvalCount:    50,
			EvalDuration: int64(time.Second),
		})
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL, Model: "test-model", Timeout: 5 * time.Second})
	result, err := client.GenerateSync(context.Background(), "how much does a 5 kW system produce")
	if err != nil {
		t.Fatalf("GenerateSync error = %v", err)
	}
	if result.Response == "" {
		t.Error("empty response")
	}
	if result.TokensPerSec != 50 {
		t.Errorf("tokens/sec = %v, want 50", result.TokensPerSec)
	}
}

func TestText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "plain answer", Done: true})
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL, Model: "test-model", Timeout: 5 * time.Second})
	got, err := client.Text(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Text error = %v", err)
	}
	if got != "plain answer" {
		t.Errorf("Text = %q, want plain answer", got)
	}
}

func TestGenerateStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, tok := range []string{"solar ", "power"} {
			json.NewEncoder(w).Encode(generateResponse{Response: tok})
		}
		json.NewEncoder(w).Encode(generateResponse{Done: true})
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL, Model: "test-model", Timeout: 5 * time.Second})
	tokens, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	var full string
	for tok := range tokens {
		full += tok
	}
	if full != "solar power" {
		t.Errorf("streamed response = %q, want %q", full, "solar power")
	}
}

func TestGenerateSyncServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL, Model: "test-model", Timeout: 5 * time.Second})
	if _, err := client.GenerateSync(context.Background(), "prompt"); err == nil {
		t.Fatal("GenerateSync succeeded against a failing server, want error")
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"models":[{"name":"llama3.1:8b"},{"name":"qwen2.5:7b"}]}`)
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error = %v", err)
	}
	if len(models) != 2 || models[0] != "llama3.1:8b" {
		t.Errorf("models = %v", models)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Model == "" || cfg.BaseURL == "" {
		t.Errorf("incomplete default config: %+v", cfg)
	}
	if cfg.ContextSize <= 0 {
		t.Errorf("context size = %d", cfg.ContextSize)
	}
}
