package storage

import "errors"

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrClientRequired indicates the Elasticsearch client was not provided.
	ErrClientRequired = errors.New("elasticsearch client is required")
)
