// Package reindex re-enriches stored diseases when the thesaurus changes.
//
// Diseases are walked in key order in batches. After each batch the enriched
// records and a checkpoint are saved, so an interrupted run resumes where it
// stopped. Storage writes that fail with a transaction conflict are retried
// with exponential backoff.
package reindex
