package daylog

import (
	"errors"
	"fmt"
)

// Kind classifies a file system failure.
type Kind uint8

// These are the failures the Writer can run into. None of them are fatal to a Logger.
const (
	KindUnknown       Kind = iota
	FileCreateFailure      // active file or archive directory could not be created.
	StatFailure            // active file size could not be read.
	WriteFailure           // appending the record failed.
	MoveFailure            // moving the active file into the archive failed.
)

// Sentinels matched by errors.Is against an *Error of the same Kind.
var (
	ErrFileCreate = errors.New("file create failure")
	ErrStat       = errors.New("stat failure")
	ErrWrite      = errors.New("write failure")
	ErrMove       = errors.New("move failure")
)

// Configuration and lifecycle errors.
var (
	ErrInvalidSize       = errors.New("invalid max size")
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrClosed            = errors.New("logger is closed")
)

// String returns the name of the failure kind.
func (k Kind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}

	return "unknown failure"
}

func (k Kind) sentinel() error {
	switch k {
	case FileCreateFailure:
		return ErrFileCreate
	case StatFailure:
		return ErrStat
	case WriteFailure:
		return ErrWrite
	case MoveFailure:
		return ErrMove
	case KindUnknown:
		fallthrough
	default:
		return nil
	}
}

// Error is returned (or reported) for every failed file system operation.
type Error struct {
	Kind Kind   // what went wrong.
	Op   string // what we were doing: append, stat, rotate, mkdir.
	Path string // the file or directory involved.
	Err  error  // underlying cause.
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMove) and friends work.
func (e *Error) Is(target error) bool {
	sentinel := e.Kind.sentinel()

	return sentinel != nil && target == sentinel
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}
