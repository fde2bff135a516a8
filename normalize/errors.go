package normalize

import "errors"

var (
	// ErrThesaurusRequired is returned when a thesaurus index is not provided.
	ErrThesaurusRequired = errors.New("thesaurus index required")

	// ErrInvalidCacheSize is returned when a negative cache size is configured.
	ErrInvalidCacheSize = errors.New("cache size must not be negative")
)
