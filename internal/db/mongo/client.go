package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/kailas-cloud/movieidx/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Driver is the config name of this backend.
const Driver = "mongo"

// Config holds connection parameters for a MongoDB store.
type Config struct {
	URI        string
	ReplicaSet string
	Database   string
}

// Store implements db.Store on top of MongoDB text indexes.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewStore connects a MongoDB client. Driver logs are routed to logger.
// The connection is lazy; use WaitForReady to block until the server answers.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("uri is required")
	}
	if cfg.Database == "" {
		return nil, errors.New("database is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetLoggerOptions(
			options.Logger().
				SetComponentLevel(options.LogComponentAll, options.LogLevelInfo).
				SetSink(NewLogSink(logger.Named("mongo"))),
		)
	if cfg.ReplicaSet != "" {
		opts = opts.SetReplicaSet(cfg.ReplicaSet)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &Store{client: client, database: client.Database(cfg.Database)}, nil
}

// Driver returns the backend name.
func (s *Store) Driver() string { return Driver }

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) collection(name string) (*mongo.Collection, error) {
	if name == "" {
		return nil, errors.New("collection is required")
	}
	return s.database.Collection(name), nil
}

// Server error codes the index lifecycle cares about.
const (
	codeNamespaceNotFound    = 26
	codeIndexNotFound        = 27
	codeIndexOptionsConflict = 85
	codeIndexKeySpecConflict = 86
)

// hasCode reports whether err is a server error carrying any of codes.
func hasCode(err error, codes ...int) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.HasErrorCode(c) {
			return true
		}
	}
	return false
}
