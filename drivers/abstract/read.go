package abstract

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/datazip-inc/tap-hubspot/destination"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/datazip-inc/tap-hubspot/typeutils"
	"github.com/datazip-inc/tap-hubspot/utils"
	"github.com/piyushsingariya/relec"
	"golang.org/x/sync/errgroup"
)

// Read walks the stream tree from the root streams. A parent stream is read when it or any
// descendant is selected; its records reach the writer only when it is selected itself.
func (a *AbstractDriver) Read(ctx context.Context, pool destination.Writer, streams []*types.ConfiguredStream) error {
	tree := newStreamTree(streams)

	for _, root := range tree.roots {
		if !tree.needed(root) {
			logger.Debugf("skipping stream %s, neither it nor its children are selected", root.ID())
			continue
		}
		if err := a.readStream(ctx, pool, tree, root, []Context{nil}); err != nil {
			return err
		}
	}

	a.state.SetCurrentlySyncing("")
	return pool.WriteState(a.state)
}

func (a *AbstractDriver) readStream(ctx context.Context, pool destination.Writer, tree *streamTree, stream *types.ConfiguredStream, partitions []Context) error {
	startTime := time.Now()
	children := tree.neededChildren(stream)

	logger.Infof("starting stream %s with %d partition(s)", stream.ID(), len(partitions))
	a.state.SetCurrentlySyncing(stream.ID())

	insert := func(types.Record) error { return nil }
	if stream.Selected() {
		if err := pool.WriteSchema(stream); err != nil {
			return err
		}
		threadInsert, closeThread, err := pool.NewThread(stream)
		if err != nil {
			return fmt.Errorf("failed to create writer thread for stream %s: %s", stream.ID(), err)
		}
		defer closeThread()
		insert = threadInsert
	}

	cursor := newCursorTracker(stream)
	collector := newContextCollector()

	var err error
	if len(partitions) == 0 {
		logger.Infof("stream %s has no partitions, its parent produced no records", stream.ID())
	} else {
		err = relec.Concurrent(ctx, partitions, max(a.driver.MaxConnections(), 1), func(ctx context.Context, partition Context, _ int) error {
			return a.driver.Read(ctx, stream, partition, func(record types.Record) error {
				if err := cursor.observe(record); err != nil {
					return err
				}
				if len(children) > 0 {
					if childContext := a.driver.ChildContext(stream, record); childContext != nil {
						collector.add(childContext)
					}
				}
				return insert(record)
			})
		})
	}
	if err != nil {
		return fmt.Errorf("failed to read stream %s: %s", stream.ID(), err)
	}

	// records are not sorted so the bookmark moves only once the stream completed;
	// streams read only to feed their children keep their bookmark
	if stream.Selected() {
		if value, found := cursor.value(); found {
			if a.partial(stream) {
				logger.Warnf("stream %s stopped at a limit, keeping its previous bookmark", stream.ID())
			} else {
				stream.SetStateCursor(value)
			}
		}
		if err := pool.WriteState(a.state); err != nil {
			return err
		}
	}
	logger.Infof("finished stream %s in %s", stream.ID(), time.Since(startTime).Round(time.Millisecond))

	if len(children) == 0 {
		return nil
	}

	childPartitions := collector.contexts()
	group, groupCtx := errgroup.WithContext(ctx)
	for _, child := range children {
		group.Go(func() error {
			return a.readStream(groupCtx, pool, tree, child, childPartitions)
		})
	}

	return group.Wait()
}

func (a *AbstractDriver) partial(stream *types.ConfiguredStream) bool {
	reader, ok := a.driver.(PartialReader)
	return ok && reader.Partial(stream)
}

type streamTree struct {
	roots    []*types.ConfiguredStream
	children map[string][]*types.ConfiguredStream
}

func newStreamTree(streams []*types.ConfiguredStream) *streamTree {
	tree := &streamTree{children: map[string][]*types.ConfiguredStream{}}
	for _, stream := range streams {
		if stream.Parent() == "" {
			tree.roots = append(tree.roots, stream)
			continue
		}
		tree.children[stream.Parent()] = append(tree.children[stream.Parent()], stream)
	}

	return tree
}

func (t *streamTree) needed(stream *types.ConfiguredStream) bool {
	return stream.Selected() || len(t.neededChildren(stream)) > 0
}

func (t *streamTree) neededChildren(stream *types.ConfiguredStream) []*types.ConfiguredStream {
	var needed []*types.ConfiguredStream
	for _, child := range t.children[stream.ID()] {
		if t.needed(child) {
			needed = append(needed, child)
		}
	}

	return needed
}

// contextCollector keeps the unique child contexts in the order they were produced
type contextCollector struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ordered []Context
}

func newContextCollector() *contextCollector {
	return &contextCollector{seen: map[string]struct{}{}}
}

func (c *contextCollector) add(childContext Context) {
	hash := utils.GetHash(childContext)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.seen[hash]; found {
		return
	}
	c.seen[hash] = struct{}{}
	c.ordered = append(c.ordered, childContext)
}

func (c *contextCollector) contexts() []Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Context(nil), c.ordered...)
}

// cursorTracker keeps the running maximum of the replication key across partitions
type cursorTracker struct {
	mu       sync.Mutex
	field    string
	dataType types.DataType
	maximum  any
}

func newCursorTracker(stream *types.ConfiguredStream) *cursorTracker {
	tracker := &cursorTracker{field: stream.Cursor(), dataType: types.String}
	if property, found := stream.Stream.Schema.Properties[tracker.field]; found && property.Has(types.Int64) {
		tracker.dataType = types.Int64
	}
	if initial := stream.InitialState(); initial != nil {
		tracker.maximum = initial
	}

	return tracker
}

func (c *cursorTracker) observe(record types.Record) error {
	if c.field == "" {
		return nil
	}
	value, found := record[c.field]
	if !found || value == nil {
		return nil
	}
	if c.dataType == types.Int64 {
		normalized, err := typeutils.ReformatInt64(value)
		if err != nil {
			return fmt.Errorf("invalid replication key %s value %v: %s", c.field, value, err)
		}
		value = normalized
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maximum == nil {
		c.maximum = value
		return nil
	}

	maximum, err := typeutils.MaximumOnDataType(c.dataType, c.maximum, value)
	if err != nil {
		return err
	}
	c.maximum = maximum
	return nil
}

func (c *cursorTracker) value() (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.field == "" || c.maximum == nil {
		return nil, false
	}
	if c.dataType == types.Int64 {
		if normalized, err := typeutils.ReformatInt64(c.maximum); err == nil {
			return normalized, true
		}
	}
	return c.maximum, true
}
