package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/neilberkman/researchtrail/internal/core/models"
)

// Result is one matching page
type Result struct {
	SessionID string
	Topic     string
	Order     int
	Title     string
	URL       string
	OpenedAt  int64
	Score     float64
}

// Index is an in-memory full-text index over the pages of research sessions
type Index struct {
	index bleve.Index
	pages map[string]Result
}

// buildIndexMapping creates the mapping for page documents
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	pageMapping := bleve.NewDocumentMapping()

	sessionField := bleve.NewTextFieldMapping()
	sessionField.Analyzer = keyword.Name
	sessionField.IncludeInAll = false
	pageMapping.AddFieldMappingsAt("session_id", sessionField)

	for _, name := range []string{"topic", "title", "url"} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = standard.Name
		field.Store = false
		pageMapping.AddFieldMappingsAt(name, field)
	}

	indexMapping.DefaultMapping = pageMapping
	return indexMapping
}

// Build indexes every page of sessions
func Build(sessions []models.Session) (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	idx := &Index{index: index, pages: make(map[string]Result)}
	batch := index.NewBatch()
	for _, s := range sessions {
		for _, p := range s.Pages {
			id := docID(s.ID, p.Order)
			doc := map[string]interface{}{
				"session_id": s.ID,
				"topic":      s.TopicName,
				"title":      p.Title,
				"url":        p.URL,
			}
			if err := batch.Index(id, doc); err != nil {
				_ = index.Close()
				return nil, fmt.Errorf("failed to add page %s to batch: %w", id, err)
			}
			idx.pages[id] = Result{
				SessionID: s.ID,
				Topic:     s.TopicName,
				Order:     p.Order,
				Title:     p.Title,
				URL:       p.URL,
				OpenedAt:  p.OpenedAt,
			}
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index pages: %w", err)
	}

	return idx, nil
}

// Search returns up to limit pages matching query, best match first
func (i *Index) Search(query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if limit <= 0 {
		limit = 20
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r, ok := i.pages[hit.ID]
		if !ok {
			continue
		}
		r.Score = hit.Score
		results = append(results, r)
	}
	return results, nil
}

// Close releases the index
func (i *Index) Close() error {
	return i.index.Close()
}

func docID(sessionID string, order int) string {
	return sessionID + "#" + strconv.Itoa(order)
}
