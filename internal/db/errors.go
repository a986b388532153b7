package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	// ErrIndexConflict means the server refused the definition because an
	// index with the same name or keys exists with different options.
	ErrIndexConflict = errors.New("db: conflicting index exists")
)

// Op constants name the backend command for error context.
const (
	OpPing          = "PING"
	OpCreateIndex   = "CREATE_INDEX"
	OpDropIndex     = "DROP_INDEX"
	OpDescribeIndex = "DESCRIBE_INDEX"
	OpSearch        = "SEARCH"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
