package thesaurus

import "errors"

var (
	// ErrUnsupportedFormat is returned when a thesaurus file has an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported thesaurus format")

	// ErrDuplicateEntry is returned when two entries share an identifier.
	ErrDuplicateEntry = errors.New("duplicate thesaurus entry")

	// ErrUnknownCluster is returned when an entry references a cluster missing from the registry.
	ErrUnknownCluster = errors.New("unknown semantic cluster")

	// ErrInvalidAccentMap is returned when an accent replacement reintroduces a mapped character.
	ErrInvalidAccentMap = errors.New("invalid accent map")
)
