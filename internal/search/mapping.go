package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for tag documents.
//
// Tag names are short labels, not prose, so the simple analyzer (lowercase,
// split on non-letters) beats language analyzers here: no stemming means
// "pop" never matches "pops" by accident, while "slow-burn" still tokenizes
// so each word is prefix-searchable.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = simple.Name

	docMapping := bleve.NewDocumentMapping()

	// Name - primary search target
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = simple.Name
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Aliases - alternate spellings resolve to the same document
	aliasFieldMapping := bleve.NewTextFieldMapping()
	aliasFieldMapping.Analyzer = simple.Name
	aliasFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("aliases", aliasFieldMapping)

	// Use count - for popularity-weighted ordering
	useCountFieldMapping := bleve.NewNumericFieldMapping()
	useCountFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("use_count", useCountFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
