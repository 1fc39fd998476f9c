package index

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"mindicons/internal/icons"
)

// BleveIndex is an in-memory full-text index over icon metadata.
type BleveIndex struct {
	index  bleve.Index
	logger *zap.Logger
}

// NewBleveIndex creates an empty in-memory index
func NewBleveIndex(logger *zap.Logger) (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &BleveIndex{index: index, logger: logger}, nil
}

func buildMapping() mapping.IndexMapping {
	iconMapping := bleve.NewDocumentMapping()

	nameField := bleve.NewTextFieldMapping()
	nameField.Store = true
	iconMapping.AddFieldMappingsAt("name", nameField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Store = true
	iconMapping.AddFieldMappingsAt("path", pathField)

	descField := bleve.NewTextFieldMapping()
	iconMapping.AddFieldMappingsAt("description", descField)

	groupField := bleve.NewKeywordFieldMapping()
	groupField.Store = true
	iconMapping.AddFieldMappingsAt("group", groupField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = iconMapping
	return indexMapping
}

func iconDocument(icon icons.Icon, group string) map[string]interface{} {
	return map[string]interface{}{
		"name":        icon.Name,
		"path":        icon.GroupPath(),
		"description": icon.Description,
		"group":       group,
	}
}

// BatchIndex indexes the icons of every group in one batch.
func (b *BleveIndex) BatchIndex(groups []icons.Group) error {
	batch := b.index.NewBatch()
	for _, g := range groups {
		for _, icon := range g.Icons {
			if err := batch.Index(icon.Name, iconDocument(icon, g.Name)); err != nil {
				return fmt.Errorf("failed to add icon %s to batch: %w", icon.Name, err)
			}
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	b.logger.Debug("Indexed icons", zap.Int("count", batch.Size()))
	return nil
}

// Hit is one search match.
type Hit struct {
	Name  string
	Score float64
}

// Search runs a free-text query. An empty query matches every icon.
func (b *BleveIndex) Search(text string, limit int) ([]Hit, error) {
	req := bleve.NewSearchRequestOptions(buildQuery(text), limit, 0, false)
	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{Name: h.ID, Score: h.Score})
	}
	return hits, nil
}

func buildQuery(text string) query.Query {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return bleve.NewMatchAllQuery()
	}

	var parts []query.Query
	for _, field := range []string{"name", "path", "description"} {
		match := bleve.NewMatchQuery(text)
		match.SetField(field)
		if field == "name" {
			match.SetBoost(2)
		}
		parts = append(parts, match)
	}
	for _, term := range strings.Fields(text) {
		prefix := bleve.NewPrefixQuery(term)
		prefix.SetField("name")
		parts = append(parts, prefix)

		pathPrefix := bleve.NewPrefixQuery(term)
		pathPrefix.SetField("path")
		parts = append(parts, pathPrefix)
	}
	return bleve.NewDisjunctionQuery(parts...)
}

// DocCount returns the number of indexed icons
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close releases the index
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
