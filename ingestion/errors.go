package ingestion

import "errors"

var (
	// ErrDiseaseRepositoryRequired is returned when a disease repository is not provided.
	ErrDiseaseRepositoryRequired = errors.New("disease repository required")

	// ErrEnrichedRepositoryRequired is returned when an enriched repository is not provided.
	ErrEnrichedRepositoryRequired = errors.New("enriched repository required")

	// ErrSnapshotRepositoryRequired is returned when a snapshot repository is not provided.
	ErrSnapshotRepositoryRequired = errors.New("snapshot repository required")

	// ErrEnricherRequired is returned when an enricher is not provided.
	ErrEnricherRequired = errors.New("enricher required")
)
