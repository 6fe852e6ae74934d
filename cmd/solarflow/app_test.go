package main

import (
	"testing"
	"time"

	"github.com/solarflow/solarflow/internal/config"
	"github.com/solarflow/solarflow/internal/inference"
)

func TestNewModelClientBare(t *testing.T) {
	mc, stop := newModelClient(config.ModelConfig{
		BaseURL: "http://localhost:11434",
		Name:    "test-model",
		Timeout: time.Second,
	})
	defer stop()

	if _, ok := mc.(*inference.Client); !ok {
		t.Fatalf("model client type = %T, want bare *inference.Client", mc)
	}
}

func TestNewModelClientPooled(t *testing.T) {
	mc, stop := newModelClient(config.ModelConfig{
		BaseURL:  "http://localhost:11434",
		Name:     "test-model",
		Timeout:  time.Second,
		PoolSize: 2,
	})
	defer stop()

	if _, ok := mc.(*inference.Pool); !ok {
		t.Fatalf("model client type = %T, want *inference.Pool when pooled", mc)
	}
}
