package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRegistered is returned when a domain has no public registration data
	ErrNotRegistered = errors.New("domain has no public registration data")
	// ErrNoSenderDomain is returned when the message carries no sender domain
	ErrNoSenderDomain = errors.New("message has no sender domain")
)

// ParseError is returned when the message envelope cannot be parsed at all
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse message: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LookupUnavailableError is returned when registration data cannot be obtained
type LookupUnavailableError struct {
	Domain string
	Err    error
}

func (e *LookupUnavailableError) Error() string {
	return fmt.Sprintf("registration lookup unavailable for %q: %v", e.Domain, e.Err)
}

func (e *LookupUnavailableError) Unwrap() error { return e.Err }

// EmbeddingError is returned when the embedding provider fails
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("failed to embed query: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// RetrievalError is returned when the vector index query fails
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("failed to query vector index: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// ConfigurationError is returned at startup when a required setting is missing
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}
