package tfidf

import "errors"

var (
	// ErrDuplicateDocument is returned when two documents share an identifier.
	ErrDuplicateDocument = errors.New("duplicate document id")

	// ErrUnknownDocument is returned when a document id is not in the index.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrInvalidWeights is returned when field weights are negative or not finite.
	ErrInvalidWeights = errors.New("invalid field weights")

	// ErrMismatchedFields is returned when weighted indices cover different documents.
	ErrMismatchedFields = errors.New("weighted indices cover different documents")
)
