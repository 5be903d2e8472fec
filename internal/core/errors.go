package core

import (
	"errors"
	"fmt"
)

// Resource names used to tag lookup failures.
const (
	ResourceCategory = "category"
	ResourcePerson   = "person"
	ResourceEntry    = "entry"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

// NotFoundError reports which lookup failed.
type NotFoundError struct {
	Resource string
	ID       int64
}

func NotFound(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type InvalidArgumentError struct {
	Field  string
	Reason string
}

func InvalidArgument(field, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Reason: reason}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ConflictError is returned when deleting a row still referenced by entries.
type ConflictError struct {
	Resource string
	ID       int64
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Resource, e.ID, e.Reason)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ResourceOf returns the resource tag carried by err, if any.
func ResourceOf(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Resource
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Resource
	}
	return ""
}
