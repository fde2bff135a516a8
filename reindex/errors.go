package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrPipelineRequired is returned when an ingestion pipeline is not provided.
	ErrPipelineRequired = errors.New("ingestion pipeline required")

	// ErrDiseaseRepositoryRequired is returned when a disease repository is not provided.
	ErrDiseaseRepositoryRequired = errors.New("disease repository required")

	// ErrEnrichedRepositoryRequired is returned when an enriched repository is not provided.
	ErrEnrichedRepositoryRequired = errors.New("enriched repository required")

	// ErrCheckpointRepositoryRequired is returned when a checkpoint repository is not provided.
	ErrCheckpointRepositoryRequired = errors.New("checkpoint repository required")
)
