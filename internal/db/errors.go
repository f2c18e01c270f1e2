package db

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrKeyNotFound signals a missing key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrIndexExists signals that the FT index already exists.
	ErrIndexExists = errors.New("index already exists")
	// ErrUnsupportedScheme signals a database URL with an unknown scheme.
	ErrUnsupportedScheme = errors.New("unsupported database url scheme")
)

// Op names a store operation for error context.
type Op string

// Store operations.
const (
	OpPing        Op = "ping"
	OpHSet        Op = "hset"
	OpHGetAll     Op = "hgetall"
	OpDel         Op = "del"
	OpGet         Op = "get"
	OpSet         Op = "set"
	OpCreateIndex Op = "create_index"
	OpIndexInfo   Op = "index_info"
	OpSearch      Op = "search"
)

// Error wraps a driver error with the failed operation.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("db %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
