package abstract

import (
	"context"

	"github.com/datazip-inc/tap-hubspot/config"
	"github.com/datazip-inc/tap-hubspot/types"
)

// Context is what a parent record hands to its child streams, e.g. a campaign id
type Context map[string]any

// EmitFn receives the records of one partition
type EmitFn func(record types.Record) error

type DriverInterface interface {
	Type() string
	// Setup builds clients from resolved settings; it must not call the API
	Setup(ctx context.Context, settings config.Settings) error
	// Check verifies that the API accepts the credentials
	Check(ctx context.Context) error
	// Streams returns every stream the driver can read, parents before children
	Streams() []*types.Stream
	// MaxConnections bounds the partitions of a stream read concurrently
	MaxConnections() int
	// Read reads one partition of a stream; partition is nil for root streams
	Read(ctx context.Context, stream *types.ConfiguredStream, partition Context, emit EmitFn) error
	// ChildContext extracts the context handed to child streams from a record of stream;
	// nil means the record feeds no child
	ChildContext(stream *types.ConfiguredStream, record types.Record) Context
}

// PartialReader is implemented by drivers whose limits can end a stream before every
// record was read. The bookmark of a partially read stream is not committed, otherwise
// records past the limit would be skipped by the next run.
type PartialReader interface {
	Partial(stream *types.ConfiguredStream) bool
}
