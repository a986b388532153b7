package db

import (
	"context"
	"time"
)

// Store is the database facade a text-index backend implements.
type Store interface {
	Pinger
	IndexManager
	TextSearcher
	Driver() string
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexRef addresses an index. Collection is ignored by backends whose
// indexes live in a global namespace.
type IndexRef struct {
	Collection string
	Name       string
}

// IndexManager provides text index lifecycle operations.
type IndexManager interface {
	// CreateIndex builds the index. Backends that accept identical re-creation
	// return nil; others return ErrIndexExists.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, ref IndexRef) error
	// DescribeIndex reads the live definition back. Returns ErrIndexNotFound when absent.
	DescribeIndex(ctx context.Context, ref IndexRef) (*IndexDefinition, error)
}

// TextSearcher runs relevance-ranked keyword queries over a text index.
type TextSearcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
}
