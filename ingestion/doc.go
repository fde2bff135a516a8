// Package ingestion provides pipeline orchestration for loading disease corpora.
//
// The Pipeline type manages the ingestion workflow for disease records, including:
//   - Validating and storing raw records
//   - Enriching records concurrently on a worker pool
//   - Recording a corpus snapshot with thesaurus version, corpus fingerprint and statistics
//
// Enrichment output is deterministic: records are enriched in parallel but
// results keep the input order.
package ingestion
