package store

import "errors"

// ErrNotFound is returned when a profile or row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a save is rejected because the record changed
// since it was loaded. The caller should reload and retry.
var ErrConflict = errors.New("record changed since load")

// ErrDuplicateEmail is returned when creating a profile with an email that
// already exists.
var ErrDuplicateEmail = errors.New("email already registered")
