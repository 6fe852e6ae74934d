package agent

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/models"
)

const (
	defaultMaxDocuments = 4
	maxDocumentsCap     = 10
	maxQueryLength      = 512
)

// Retriever fetches ranked context passages for a query. Ranking lives
// entirely on the vector-store collaborator; this agent only shapes the
// query and bounds the result count.
type Retriever struct {
	search ContextSearcher
	log    zerolog.Logger
}

// NewRetriever creates a retriever over a searcher. A nil searcher disables
// retrieval: FetchContext then always returns an empty set.
func NewRetriever(search ContextSearcher, log zerolog.Logger) *Retriever {
	return &Retriever{
		search: search,
		log:    log.With().Str("component", "retriever").Logger(),
	}
}

// FetchContext returns up to maxDocuments passages. No passages clearing
// the collaborator's relevance threshold is a valid outcome signaled by an
// empty slice; only transport failures surface as errors.
func (r *Retriever) FetchContext(ctx context.Context, query string, maxDocuments int) ([]models.Passage, error) {
	if r.search == nil {
		return []models.Passage{}, nil
	}

	if maxDocuments <= 0 {
		maxDocuments = defaultMaxDocuments
	}
	if maxDocuments > maxDocumentsCap {
		maxDocuments = maxDocumentsCap
	}

	shaped := shapeQuery(query)
	if shaped == "" {
		return []models.Passage{}, nil
	}

	passages, err := r.search.Search(ctx, shaped, maxDocuments)
	if err != nil {
		return nil, err
	}
	if len(passages) > maxDocuments {
		passages = passages[:maxDocuments]
	}
	r.log.Debug().Int("passages", len(passages)).Msg("fetched context")
	return passages, nil
}

// shapeQuery collapses whitespace and truncates oversized queries before
// they hit the collaborator.
func shapeQuery(query string) string {
	shaped := strings.Join(strings.Fields(query), " ")
	if len(shaped) > maxQueryLength {
		shaped = shaped[:maxQueryLength]
	}
	return shaped
}
