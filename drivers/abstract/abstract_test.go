package abstract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/datazip-inc/tap-hubspot/config"
	"github.com/datazip-inc/tap-hubspot/destination"
	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeDriver serves campaigns -> (details, events -> subscriptions) from memory
type fakeDriver struct {
	mu       sync.Mutex
	calls    map[string][]Context
	failOn   string
	initials map[string]any
	partial  map[string]bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{calls: map[string][]Context{}, initials: map[string]any{}}
}

func (f *fakeDriver) Type() string { return "fake" }

func (f *fakeDriver) Setup(_ context.Context, _ config.Settings) error { return nil }

func (f *fakeDriver) Check(_ context.Context) error { return nil }

func (f *fakeDriver) MaxConnections() int { return 2 }

func (f *fakeDriver) Partial(stream *types.ConfiguredStream) bool {
	return f.partial[stream.ID()]
}

func (f *fakeDriver) Streams() []*types.Stream {
	return []*types.Stream{
		types.NewStream("campaigns").WithPrimaryKey("id").WithSchema(types.PropertiesList(
			types.NewProperty("id", types.IntegerType(), "").Required(),
		)),
		types.NewStream("details").WithParent("campaigns").WithPrimaryKey("id").WithSchema(types.PropertiesList(
			types.NewProperty("id", types.IntegerType(), "").Required(),
			types.NewProperty("name", types.StringType(), ""),
		)),
		types.NewStream("events").WithParent("campaigns").WithPrimaryKey("id").WithCursorField("created").WithSchema(types.PropertiesList(
			types.NewProperty("id", types.StringType(), "").Required(),
			types.NewProperty("created", types.IntegerType(), "").Required(),
			types.NewProperty("recipient", types.StringType(), ""),
		)),
		types.NewStream("subscriptions").WithParent("events").WithPrimaryKey("email").WithSchema(types.PropertiesList(
			types.NewProperty("email", types.StringType(), "").Required(),
		)),
	}
}

func (f *fakeDriver) Read(_ context.Context, stream *types.ConfiguredStream, partition Context, emit EmitFn) error {
	f.mu.Lock()
	f.calls[stream.ID()] = append(f.calls[stream.ID()], partition)
	f.initials[stream.ID()] = stream.InitialState()
	f.mu.Unlock()

	if stream.ID() == f.failOn {
		return errors.New("boom")
	}

	switch stream.ID() {
	case "campaigns":
		for _, id := range []int64{1, 2, 2} {
			if err := emit(types.Record{"id": id}); err != nil {
				return err
			}
		}
	case "details":
		return emit(types.Record{"id": partition["campaign_id"], "name": fmt.Sprintf("campaign %v", partition["campaign_id"])})
	case "events":
		campaign := partition["campaign_id"].(int64)
		for i, recipient := range []string{"a@example.com", "b@example.com"} {
			record := types.Record{
				"id":        fmt.Sprintf("%d-%d", campaign, i),
				"created":   float64(1000*campaign + int64(i)),
				"recipient": recipient,
			}
			if err := emit(record); err != nil {
				return err
			}
		}
	case "subscriptions":
		return emit(types.Record{"email": partition["email"]})
	}

	return nil
}

func (f *fakeDriver) ChildContext(stream *types.ConfiguredStream, record types.Record) Context {
	switch stream.ID() {
	case "campaigns":
		return Context{"campaign_id": record["id"]}
	case "events":
		return Context{"email": record["recipient"]}
	}
	return nil
}

func (f *fakeDriver) partitions(stream string) []Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stream]
}

type output struct {
	schemas map[string]int
	records map[string]int
	states  []map[string]any
}

func parseOutput(t *testing.T, buf *bytes.Buffer) output {
	t.Helper()
	out := output{schemas: map[string]int{}, records: map[string]int{}}
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		message := map[string]any{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &message))
		switch message["type"] {
		case "SCHEMA":
			out.schemas[message["stream"].(string)]++
		case "RECORD":
			out.records[message["stream"].(string)]++
		case "STATE":
			out.states = append(out.states, message["value"].(map[string]any))
		}
	}
	return out
}

func runSync(t *testing.T, driver *fakeDriver, catalog *types.Catalog, state *types.State) (output, error) {
	t.Helper()
	abstract := NewAbstractDriver(driver)
	abstract.SetupState(state)

	streams, err := abstract.Configure(catalog)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	pool, err := destination.NewWriterPool(buf)
	require.NoError(t, err)
	require.NoError(t, pool.Prepare(streams...))

	err = abstract.Read(context.Background(), pool, streams)
	return parseOutput(t, buf), err
}

func TestReadAllStreams(t *testing.T) {
	driver := newFakeDriver()
	out, err := runSync(t, driver, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"campaigns": 3, "details": 2, "events": 4, "subscriptions": 2}, out.records)
	assert.Equal(t, map[string]int{"campaigns": 1, "details": 1, "events": 1, "subscriptions": 1}, out.schemas)

	// duplicate parent records produce one child partition
	assert.Len(t, driver.partitions("details"), 2)
	assert.Len(t, driver.partitions("events"), 2)
	assert.ElementsMatch(t, []Context{{"email": "a@example.com"}, {"email": "b@example.com"}}, driver.partitions("subscriptions"))
	assert.Equal(t, []Context{nil}, driver.partitions("campaigns"))

	require.NotEmpty(t, out.states)
	final := out.states[len(out.states)-1]
	assert.Equal(t, map[string]any{
		"events": map[string]any{"replication_key": "created", "replication_key_value": float64(2001)},
	}, final["bookmarks"])
	assert.NotContains(t, final, "currently_syncing")
}

func deselect(catalog *types.Catalog, streams ...string) {
	for _, name := range streams {
		entry, _ := catalog.Get(name)
		for _, md := range entry.Metadata {
			if len(md.Breadcrumb) == 0 {
				md.Metadata["selected"] = false
			}
		}
	}
}

func TestReadOnlySelectedStreamsAreEmitted(t *testing.T) {
	driver := newFakeDriver()
	catalog := NewAbstractDriver(driver).Discover()
	deselect(catalog, "campaigns", "details", "events")

	out, err := runSync(t, driver, catalog, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"subscriptions": 2}, out.records)
	assert.Equal(t, map[string]int{"subscriptions": 1}, out.schemas)
	// parents still feed the selected child
	assert.Len(t, driver.partitions("campaigns"), 1)
	assert.Len(t, driver.partitions("events"), 2)
	assert.Empty(t, driver.partitions("details"))
}

func TestReadNothingSelected(t *testing.T) {
	driver := newFakeDriver()
	catalog := NewAbstractDriver(driver).Discover()
	deselect(catalog, "campaigns", "details", "events", "subscriptions")

	out, err := runSync(t, driver, catalog, nil)
	require.NoError(t, err)
	assert.Empty(t, out.records)
	assert.Empty(t, driver.partitions("campaigns"))
	assert.Len(t, out.states, 1)
}

func TestReadResumesFromBookmark(t *testing.T) {
	driver := newFakeDriver()
	state := types.NewState()
	state.SetBookmark("events", "created", float64(5000))

	out, err := runSync(t, driver, nil, state)
	require.NoError(t, err)

	assert.Equal(t, float64(5000), driver.initials["events"])
	final := out.states[len(out.states)-1]
	// the bookmark never moves backwards
	assert.Equal(t, map[string]any{"replication_key": "created", "replication_key_value": float64(5000)},
		final["bookmarks"].(map[string]any)["events"])
}

func TestReadKeepsBookmarkOfPartialStreams(t *testing.T) {
	driver := newFakeDriver()
	driver.partial = map[string]bool{"events": true}

	out, err := runSync(t, driver, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, out.records["events"])
	final := out.states[len(out.states)-1]
	assert.Empty(t, final["bookmarks"])

	// an earlier bookmark survives the limited run untouched
	driver = newFakeDriver()
	driver.partial = map[string]bool{"events": true}
	state := types.NewState()
	state.SetBookmark("events", "created", float64(500))

	out, err = runSync(t, driver, nil, state)
	require.NoError(t, err)
	final = out.states[len(out.states)-1]
	assert.Equal(t, map[string]any{"replication_key": "created", "replication_key_value": float64(500)},
		final["bookmarks"].(map[string]any)["events"])
}

func TestReadPropagatesDriverErrors(t *testing.T) {
	driver := newFakeDriver()
	driver.failOn = "events"

	_, err := runSync(t, driver, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestConfigureRejectsInvalidCatalog(t *testing.T) {
	driver := newFakeDriver()
	abstract := NewAbstractDriver(driver)
	catalog := abstract.Discover()
	entry, _ := catalog.Get("campaigns")
	entry.ReplicationMethod = types.INCREMENTAL

	_, err := abstract.Configure(catalog)
	assert.Error(t, err)
}

func TestConfigureMissingStreamsAreNotSelected(t *testing.T) {
	driver := newFakeDriver()
	abstract := NewAbstractDriver(driver)

	streams, err := abstract.Configure(&types.Catalog{Streams: []*types.CatalogEntry{
		driver.Streams()[0].Wrap(),
	}})
	require.NoError(t, err)
	require.Len(t, streams, 4)
	assert.True(t, streams[0].Selected())
	for _, stream := range streams[1:] {
		assert.False(t, stream.Selected(), stream.ID())
	}
}

func TestRetryOnBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := RetryOnBackoff(ctx, 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error", func(t *testing.T) {
		calls := 0
		err := RetryOnBackoff(ctx, 2, time.Millisecond, func() error {
			calls++
			return errors.New("transient")
		})
		assert.EqualError(t, err, "transient")
		assert.Equal(t, 2, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		calls := 0
		err := RetryOnBackoff(ctx, 5, time.Millisecond, func() error {
			calls++
			return Permanent(errors.New("unauthorized"))
		})
		assert.EqualError(t, err, "unauthorized")
		assert.Equal(t, 1, calls)
	})

	t.Run("honours retry after", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := RetryOnBackoff(ctx, 2, time.Millisecond, func() error {
			calls++
			if calls == 1 {
				return &RetryAfterError{Err: errors.New("rate limited"), Wait: 50 * time.Millisecond}
			}
			return nil
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("stops when context is done", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryOnBackoff(cancelled, 5, time.Second, func() error {
			return errors.New("transient")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
