package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrInvalidRecord       = errors.New("invalid record")
	ErrDuplicateNaturalKey = errors.New("duplicate natural key")
	ErrConfiguration       = errors.New("invalid configuration")
)

// InvalidRecordError reports a record missing its natural key or usable
// coordinates. Such records are dropped from a merge, not fatal.
type InvalidRecordError struct {
	Key    NaturalKey
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %s: %s", e.Key, e.Reason)
}

// Is implements errors.Is support.
func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// DuplicateNaturalKeyError reports two input records sharing (source_id, external_id).
type DuplicateNaturalKeyError struct {
	Key NaturalKey
}

func (e *DuplicateNaturalKeyError) Error() string {
	return fmt.Sprintf("duplicate natural key %s", e.Key)
}

// Is implements errors.Is support.
func (e *DuplicateNaturalKeyError) Is(target error) bool {
	return target == ErrDuplicateNaturalKey
}

// ConfigurationError reports a malformed threshold or priority list.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// Is implements errors.Is support.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
