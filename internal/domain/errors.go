// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the entity collides with existing state,
// such as a duplicate tenant domain.
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates the request was well-formed but violates a
// domain rule. Wrap it with the rule that failed.
var ErrValidation = errors.New("validation")
