package rag

import (
	"errors"
)

// Sentinel errors classifying every failure the engine can surface. Callers
// match with errors.Is; packages wrap them with fmt.Errorf("...%w...") to
// attach operation context.
var (
	// ErrNotFound reports that a referenced document or chunk is absent,
	// e.g. deleted mid-request.
	ErrNotFound = errors.New("not found")

	// ErrValidation reports malformed input, such as a vector blob whose
	// byte length is not a multiple of the element size.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence reports a failure in the transactional store.
	ErrPersistence = errors.New("persistence failed")

	// ErrEmbedding reports an external embedder failure or a
	// dimensionality mismatch.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration reports an external generator failure.
	ErrGeneration = errors.New("generation failed")

	// ErrInvariant reports an internal contract violation, such as a
	// prompt missing its expected section markers. It indicates a
	// programming error, not a user-facing condition.
	ErrInvariant = errors.New("invariant violation")
)
