package search

import (
	"github.com/poiesic/medsearch/core"
	"github.com/poiesic/medsearch/semantic"
	"github.com/poiesic/medsearch/tfidf"
)

// SearchMonitor provides hooks to observe the hybrid search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query HybridQuery)
	AfterCandidateFilter(candidates []string)
	AfterTFIDFSearch(hits []tfidf.Hit)
	AfterSemanticSearch(query semantic.Query, ids []string)
	TFIDFAndSemanticHit(result core.SearchResult)
	TFIDFHit(result core.SearchResult)
	SemanticHit(result core.SearchResult)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ HybridQuery)                              {}
func (n *noopMonitor) AfterCandidateFilter(_ []string)                  {}
func (n *noopMonitor) AfterTFIDFSearch(_ []tfidf.Hit)                   {}
func (n *noopMonitor) AfterSemanticSearch(_ semantic.Query, _ []string) {}
func (n *noopMonitor) TFIDFAndSemanticHit(_ core.SearchResult)          {}
func (n *noopMonitor) TFIDFHit(_ core.SearchResult)                     {}
func (n *noopMonitor) SemanticHit(_ core.SearchResult)                  {}
func (n *noopMonitor) Finish(_ []core.SearchResult)                     {}
