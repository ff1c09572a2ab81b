package services

import "errors"

var (
	// ErrSchema marks input that does not have the shape the pipeline expects:
	// a missing field, an unrecognised column name, a duplicate key or an inverted window.
	ErrSchema = errors.New("schema error")
	// ErrParse marks a value that is present but cannot be parsed.
	ErrParse = errors.New("parse error")
	// ErrJoinMiss marks a clean name that has no matching centre metadata.
	ErrJoinMiss = errors.New("join miss")
)
