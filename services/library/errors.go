package library

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrFullTextDisabled  = errors.New("full-text search is not configured")
)

type NotFoundError struct {
	Collection string
	Slug       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s document with slug %q", e.Collection, e.Slug)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type UnknownCollectionError struct {
	Name string
}

func (e *UnknownCollectionError) Error() string {
	return fmt.Sprintf("unknown collection %q", e.Name)
}

func (e *UnknownCollectionError) Is(target error) bool {
	return target == ErrUnknownCollection
}
