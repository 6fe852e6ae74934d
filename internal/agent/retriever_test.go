package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/models"
)

type recordingSearcher struct {
	stubSearcher
	query string
	topK  int
}

func (s *recordingSearcher) Search(ctx context.Context, query string, topK int) ([]models.Passage, error) {
	s.query = query
	s.topK = topK
	return s.passages, s.err
}

func TestFetchContextNilSearcher(t *testing.T) {
	r := NewRetriever(nil, zerolog.Nop())

	got, err := r.FetchContext(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("FetchContext error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("passages = %d, want 0 with retrieval disabled", len(got))
	}
}

func TestFetchContextBounds(t *testing.T) {
	s := &recordingSearcher{}
	r := NewRetriever(s, zerolog.Nop())

	if _, err := r.FetchContext(context.Background(), "query", 0); err != nil {
		t.Fatalf("FetchContext error = %v", err)
	}
	if s.topK != defaultMaxDocuments {
		t.Errorf("topK with zero request = %d, want default %d", s.topK, defaultMaxDocuments)
	}

	if _, err := r.FetchContext(context.Background(), "query", 50); err != nil {
		t.Fatalf("FetchContext error = %v", err)
	}
	if s.topK != maxDocumentsCap {
		t.Errorf("topK with oversized request = %d, want cap %d", s.topK, maxDocumentsCap)
	}
}

func TestFetchContextShapesQuery(t *testing.T) {
	s := &recordingSearcher{}
	r := NewRetriever(s, zerolog.Nop())

	if _, err := r.FetchContext(context.Background(), "  solar \n\t panel   payback  ", 0); err != nil {
		t.Fatalf("FetchContext error = %v", err)
	}
	if s.query != "solar panel payback" {
		t.Errorf("shaped query = %q", s.query)
	}

	long := strings.Repeat("solar ", 200)
	if _, err := r.FetchContext(context.Background(), long, 0); err != nil {
		t.Fatalf("FetchContext error = %v", err)
	}
	if len(s.query) != maxQueryLength {
		t.Errorf("shaped query length = %d, want %d", len(s.query), maxQueryLength)
	}
}

func TestFetchContextBlankQuery(t *testing.T) {
	s := &recordingSearcher{stubSearcher: stubSearcher{err: fmt.Errorf("should not be called")}}
	r := NewRetriever(s, zerolog.Nop())

	got, err := r.FetchContext(context.Background(), "   \n  ", 0)
	if err != nil {
		t.Fatalf("FetchContext error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("passages = %d, want 0 for a blank query", len(got))
	}
}

func TestFetchContextTransportError(t *testing.T) {
	s := &recordingSearcher{stubSearcher: stubSearcher{err: fmt.Errorf("connection refused")}}
	r := NewRetriever(s, zerolog.Nop())

	if _, err := r.FetchContext(context.Background(), "query", 0); err == nil {
		t.Fatal("FetchContext succeeded, want transport error surfaced")
	}
}

func TestFetchContextTruncatesOverfullResults(t *testing.T) {
	passages := make([]models.Passage, 8)
	for i := range passages {
		passages[i] = models.Passage{Text: fmt.Sprintf("doc %d", i)}
	}
	s := &recordingSearcher{stubSearcher: stubSearcher{passages: passages}}
	r := NewRetriever(s, zerolog.Nop())

	got, err := r.FetchContext(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("FetchContext error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("passages = %d, want 3 after truncation", len(got))
	}
}
