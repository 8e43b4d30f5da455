package store

import (
	"context"

	"github.com/JonMunkholm/fileframe/internal/constraint"
	"github.com/JonMunkholm/fileframe/internal/table"
)

// DefaultBatchSize is the number of rows per INSERT statement in the SQLite sink.
const DefaultBatchSize = 500

// Frame is a validated table and the constraints it was checked against.
// *fileframe.FileFrame satisfies it.
type Frame interface {
	Table() *table.Table
	ConstraintDetails() []constraint.Descriptor
}

// Sink writes a validated frame into a database table and returns the
// number of rows written. Both sinks in this package implement it.
type Sink interface {
	Write(ctx context.Context, name string, f Frame, opts ...WriteOption) (int64, error)
}

type writeConfig struct {
	create    bool
	batchSize int
}

// WriteOption configures a sink write.
type WriteOption func(*writeConfig)

// WithCreateTable issues CREATE TABLE IF NOT EXISTS before inserting.
func WithCreateTable() WriteOption {
	return func(c *writeConfig) { c.create = true }
}

// WithBatchSize sets rows per INSERT for sinks that batch.
func WithBatchSize(n int) WriteOption {
	return func(c *writeConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

func newWriteConfig(opts []WriteOption) writeConfig {
	cfg := writeConfig{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
