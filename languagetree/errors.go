package languagetree

import (
	"errors"

	"github.com/noclaps/go-tree-sitter-langtree/internal/injection"
)

var (
	// ErrDestroyed is returned when parsing a language tree that has been destroyed.
	ErrDestroyed = errors.New("language tree destroyed")

	// ErrMalformedInjectionMatch is reported for injection matches naming no language or
	// marking no content. Such matches are skipped.
	ErrMalformedInjectionMatch = injection.ErrMalformedMatch
)
