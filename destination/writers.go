package destination

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/datazip-inc/tap-hubspot/typeutils"
	"github.com/goccy/go-json"
)

const DestError = "destination error"

type InsertFunction func(record types.Record) (err error)
type CloseFunction func()

type Options struct {
	Flattening   bool
	FlattenDepth int
	StreamMaps   map[string]any
}

type Option func(opt *Options)

func WithFlattening(enabled bool, maxDepth int) Option {
	return func(opt *Options) {
		opt.Flattening = enabled
		opt.FlattenDepth = maxDepth
	}
}

func WithStreamMaps(streamMaps map[string]any) Option {
	return func(opt *Options) {
		opt.StreamMaps = streamMaps
	}
}

// WriterPool serializes Singer messages of every stream thread onto one output
type WriterPool struct {
	recordCount atomic.Int64
	encoder     *json.Encoder
	flattener   *typeutils.Flattener
	streamMaps  map[string]*StreamMap
	prepared    map[string]*prepared
	tmu         sync.Mutex // serializes writes between threads
}

// prepared holds the output shape of one stream, computed before any record is read
type prepared struct {
	stream        *types.ConfiguredStream
	mapped        *mapped
	schemaWritten bool
	records       atomic.Int64
}

func NewWriterPool(out io.Writer, options ...Option) (*WriterPool, error) {
	opts := &Options{}
	for _, one := range options {
		one(opts)
	}

	streamMaps, err := ParseStreamMaps(opts.StreamMaps)
	if err != nil {
		return nil, err
	}

	pool := &WriterPool{
		encoder:    json.NewEncoder(out),
		streamMaps: streamMaps,
		prepared:   map[string]*prepared{},
	}
	if opts.Flattening {
		pool.flattener = typeutils.NewFlattener(opts.FlattenDepth)
	}

	return pool, nil
}

// Prepare computes the emitted schema of every selected stream so that invalid stream
// maps fail before extraction starts
func (w *WriterPool) Prepare(streams ...*types.ConfiguredStream) error {
	w.tmu.Lock()
	defer w.tmu.Unlock()

	known := map[string]bool{}
	for _, stream := range streams {
		known[stream.ID()] = true
		if !stream.Selected() {
			continue
		}

		schema := stream.Schema()
		if w.flattener != nil {
			schema = w.flattener.FlattenSchema(schema)
		}

		streamMap, found := w.streamMaps[stream.ID()]
		if !found {
			streamMap = &StreamMap{KeepUnmapped: true, Removed: types.NewSet[string](), Copies: map[string]string{}}
		}

		result, err := streamMap.mapSchema(stream.ID(), schema, stream.KeyProperties())
		if err != nil {
			return err
		}

		w.prepared[stream.ID()] = &prepared{stream: stream, mapped: result}
	}

	for name := range w.streamMaps {
		if !known[name] {
			logger.Warnf("stream map configured for unknown stream %s", name)
		}
	}

	return nil
}

// NewThread returns the insert and close functions of a prepared stream. SCHEMA is written
// once per stream before its first record, however many threads share the stream.
func (w *WriterPool) NewThread(stream *types.ConfiguredStream) (InsertFunction, CloseFunction, error) {
	w.tmu.Lock()
	prep, found := w.prepared[stream.ID()]
	w.tmu.Unlock()
	if !found {
		return nil, nil, fmt.Errorf("%s, stream %s not prepared", DestError, stream.ID())
	}

	if prep.mapped.streamMap.Drop {
		return func(types.Record) error { return nil }, func() {}, nil
	}

	insert := func(record types.Record) error {
		output := stream.FilterRecord(record)
		if w.flattener != nil {
			flattened, err := w.flattener.Flatten(output)
			if err != nil {
				return fmt.Errorf("%s, failed to flatten record of %s: %s", DestError, stream.ID(), err)
			}
			output = flattened
		}
		output = prep.mapped.streamMap.mapRecord(output, prep.mapped.keyProperties)

		w.tmu.Lock()
		defer w.tmu.Unlock()

		if err := w.writeSchema(prep); err != nil {
			return err
		}

		err := w.encoder.Encode(types.RecordMsg{
			Type:          types.RecordMessage,
			Stream:        prep.mapped.name,
			Record:        output,
			TimeExtracted: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("%s, failed to write record: %s", DestError, err)
		}

		prep.records.Add(1)
		w.recordCount.Add(1)
		return nil
	}

	return insert, func() {
		logger.Debugf("thread of stream %s closed, %d records written so far", stream.ID(), prep.records.Load())
	}, nil
}

// writeSchema must be called holding tmu
func (w *WriterPool) writeSchema(prep *prepared) error {
	if prep.schemaWritten {
		return nil
	}

	var bookmarks []string
	if cursor := prep.stream.Cursor(); cursor != "" {
		bookmarks = []string{cursor}
	}

	err := w.encoder.Encode(types.SchemaMsg{
		Type:               types.SchemaMessage,
		Stream:             prep.mapped.name,
		Schema:             prep.mapped.schema,
		KeyProperties:      prep.mapped.keyProperties,
		BookmarkProperties: bookmarks,
	})
	if err != nil {
		return fmt.Errorf("%s, failed to write schema: %s", DestError, err)
	}

	prep.schemaWritten = true
	return nil
}

// WriteSchema emits the SCHEMA message of a stream even if it produced no records
func (w *WriterPool) WriteSchema(stream *types.ConfiguredStream) error {
	w.tmu.Lock()
	defer w.tmu.Unlock()

	prep, found := w.prepared[stream.ID()]
	if !found || prep.mapped.streamMap.Drop {
		return nil
	}

	return w.writeSchema(prep)
}

// WriteState emits a STATE message and mirrors it into the artifacts folder
func (w *WriterPool) WriteState(state *types.State) error {
	w.tmu.Lock()
	defer w.tmu.Unlock()

	if err := w.encoder.Encode(types.StateMsg{Type: types.StateMessage, Value: state}); err != nil {
		return fmt.Errorf("%s, failed to write state: %s", DestError, err)
	}

	logger.LogArtifact(state, "state")
	return nil
}

// Returns total records written at runtime
func (w *WriterPool) SyncedRecords() int64 {
	return w.recordCount.Load()
}

// StreamRecords returns the records written for one stream
func (w *WriterPool) StreamRecords(streamID string) int64 {
	w.tmu.Lock()
	defer w.tmu.Unlock()

	if prep, found := w.prepared[streamID]; found {
		return prep.records.Load()
	}
	return 0
}
