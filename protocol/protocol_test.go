package protocol

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/datazip-inc/tap-hubspot/config"
	"github.com/datazip-inc/tap-hubspot/drivers/abstract"
	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	setups   int
	checks   int
	closed   bool
	settings config.Settings
}

func (f *fakeDriver) Type() string { return "fake" }

func (f *fakeDriver) Setup(_ context.Context, settings config.Settings) error {
	f.setups++
	f.settings = settings
	return nil
}

func (f *fakeDriver) Check(_ context.Context) error {
	f.checks++
	return nil
}

func (f *fakeDriver) MaxConnections() int { return 1 }

func (f *fakeDriver) Close() { f.closed = true }

func (f *fakeDriver) Streams() []*types.Stream {
	return []*types.Stream{
		types.NewStream("campaigns").WithPrimaryKey("id").WithSchema(types.PropertiesList(
			types.NewProperty("id", types.IntegerType(), "").Required(),
			types.NewProperty("name", types.StringType(), ""),
		)),
		types.NewStream("events").WithParent("campaigns").WithPrimaryKey("id").WithCursorField("created").WithSchema(types.PropertiesList(
			types.NewProperty("id", types.StringType(), "").Required(),
			types.NewProperty("created", types.IntegerType(), "").Required(),
		)),
	}
}

func (f *fakeDriver) Read(_ context.Context, stream *types.ConfiguredStream, partition abstract.Context, emit abstract.EmitFn) error {
	switch stream.ID() {
	case "campaigns":
		return emit(types.Record{"id": int64(1), "name": "Spring"})
	case "events":
		return emit(types.Record{"id": "1-0", "created": int64(1700), "campaign": partition["campaign_id"]})
	}
	return nil
}

func (f *fakeDriver) ChildContext(stream *types.ConfiguredStream, record types.Record) abstract.Context {
	if stream.ID() == "campaigns" {
		return abstract.Context{"campaign_id": record["id"]}
	}
	return nil
}

func writeFile(t *testing.T, name string, content any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data, err := json.Marshal(content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func setupCommand(t *testing.T, configs ...string) *fakeDriver {
	t.Helper()
	t.Setenv("TAP_HUBSPOT_ACCESS_TOKEN", "")

	driver := &fakeDriver{}
	connector = abstract.NewAbstractDriver(driver)
	configPaths = configs
	catalogPath, statePath = "", ""
	t.Cleanup(func() {
		configPaths = nil
		catalogPath, statePath = "", ""
	})

	return driver
}

func messages(t *testing.T, out *bytes.Buffer) []map[string]any {
	t.Helper()
	var parsed []map[string]any
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		message := map[string]any{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &message))
		parsed = append(parsed, message)
	}
	return parsed
}

func TestAboutJSON(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, runAbout(out, "json"))

	about := map[string]any{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &about))
	assert.Equal(t, "tap-hubspot", about["name"])
	assert.Equal(t, []any{"state", "catalog", "discover", "about", "stream-maps"}, about["capabilities"])

	settings := about["settings"].(map[string]any)
	assert.Equal(t, []any{"access_token"}, settings["required"])
	token := settings["properties"].(map[string]any)["access_token"].(map[string]any)
	assert.Equal(t, true, token["secret"])
}

func TestAboutMarkdown(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, runAbout(out, "markdown"))

	assert.Contains(t, out.String(), "| access_token | True | None | TAP_HUBSPOT_ACCESS_TOKEN |")
	assert.Contains(t, out.String(), "| campaigns_limit | False | -1 | TAP_HUBSPOT_CAMPAIGNS_LIMIT |")
	assert.Contains(t, out.String(), "* `stream-maps`")

	assert.Error(t, runAbout(out, "yaml"))
}

func TestConfigurationErrorsStopBeforeSetup(t *testing.T) {
	driver := setupCommand(t, writeFile(t, "config.json", map[string]any{"campaigns_limit": -5}))

	out := &bytes.Buffer{}
	err := runSync(context.Background(), out)
	require.Error(t, err)
	assert.True(t, config.IsConfigurationError(err))
	assert.ElementsMatch(t, []string{"access_token", "campaigns_limit"}, config.FailedSettings(err))

	assert.Zero(t, driver.setups)
	assert.Empty(t, out.String())

	err = runDiscover(context.Background(), out)
	assert.True(t, config.IsConfigurationError(err))
	err = runCheck(context.Background(), out)
	assert.True(t, config.IsConfigurationError(err))
	assert.Zero(t, driver.setups)
}

func TestDiscover(t *testing.T) {
	driver := setupCommand(t, writeFile(t, "config.json", map[string]any{"access_token": "token"}))

	out := &bytes.Buffer{}
	require.NoError(t, runDiscover(context.Background(), out))
	assert.Equal(t, 1, driver.setups)
	assert.True(t, driver.closed)
	assert.Equal(t, "token", driver.settings.AccessToken)

	catalog := &types.Catalog{}
	require.NoError(t, json.Unmarshal(out.Bytes(), catalog))
	require.Len(t, catalog.Streams, 2)
	assert.Equal(t, "campaigns", catalog.Streams[0].TapStreamID)
	assert.Equal(t, types.INCREMENTAL, catalog.Streams[1].ReplicationMethod)
}

func TestSyncAllStreams(t *testing.T) {
	setupCommand(t, writeFile(t, "config.json", map[string]any{"access_token": "token"}))

	out := &bytes.Buffer{}
	require.NoError(t, runSync(context.Background(), out))

	var kinds []string
	for _, message := range messages(t, out) {
		kind := message["type"].(string)
		if stream, ok := message["stream"].(string); ok {
			kind += ":" + stream
		}
		kinds = append(kinds, kind)
	}
	expected := []string{"SCHEMA:campaigns", "RECORD:campaigns", "STATE", "SCHEMA:events", "RECORD:events", "STATE", "STATE"}
	assert.Empty(t, cmp.Diff(expected, kinds))
}

func TestSyncWithCatalogStateAndStreamMaps(t *testing.T) {
	setupCommand(t,
		writeFile(t, "config.json", map[string]any{"access_token": "token"}),
		writeFile(t, "maps.json", map[string]any{
			"stream_maps": map[string]any{"events": map[string]any{"__alias__": "email_events"}},
		}),
	)

	driver := &fakeDriver{}
	catalog := abstract.NewAbstractDriver(driver).Discover()
	entry, _ := catalog.Get("campaigns")
	for _, md := range entry.Metadata {
		if len(md.Breadcrumb) == 0 {
			md.Metadata["selected"] = false
		}
	}
	catalogPath = writeFile(t, "catalog.json", catalog)
	statePath = writeFile(t, "state.json", map[string]any{
		"bookmarks": map[string]any{"events": map[string]any{"replication_key": "created", "replication_key_value": 9000}},
	})

	out := &bytes.Buffer{}
	require.NoError(t, runSync(context.Background(), out))

	parsed := messages(t, out)
	streams := map[string]int{}
	for _, message := range parsed {
		if message["type"] == "RECORD" {
			streams[message["stream"].(string)]++
		}
	}
	assert.Equal(t, map[string]int{"email_events": 1}, streams)

	final := parsed[len(parsed)-1]
	require.Equal(t, "STATE", final["type"])
	assert.Equal(t, map[string]any{"replication_key": "created", "replication_key_value": float64(9000)},
		final["value"].(map[string]any)["bookmarks"].(map[string]any)["events"])
}

func TestCheck(t *testing.T) {
	driver := setupCommand(t, writeFile(t, "config.json", map[string]any{"access_token": "token"}))

	out := &bytes.Buffer{}
	require.NoError(t, runCheck(context.Background(), out))
	assert.Equal(t, 1, driver.checks)
	assert.JSONEq(t, `{"connectionStatus":{"status":"SUCCEEDED"}}`, out.String())
}
