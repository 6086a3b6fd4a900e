package types

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStream() *Stream {
	return NewStream("email_events").
		WithParent("email_campaigns").
		WithPrimaryKey("id", "created").
		WithCursorField("created").
		WithSchema(PropertiesList(
			NewProperty("id", StringType(), "event id").Required(),
			NewProperty("created", IntegerType(), "creation time"),
			NewProperty("recipient", StringType(), "recipient email"),
			NewProperty("sentBy", ObjectType(
				NewProperty("id", StringType(), "sender id"),
			), "sender"),
		))
}

func TestPropertiesListNullability(t *testing.T) {
	schema := testStream().Schema

	assert.Equal(t, []DataType{String}, schema.Properties["id"].Type)
	assert.Equal(t, []DataType{Int64, Null}, schema.Properties["created"].Type)
	assert.Equal(t, []DataType{Object, Null}, schema.Properties["sentBy"].Type)
	assert.Equal(t, []string{"id"}, schema.Required)
	assert.Equal(t, "creation time", schema.Properties["created"].Description)
}

func TestWrapBuildsMetadata(t *testing.T) {
	entry := testStream().Wrap()

	assert.Equal(t, "email_events", entry.TapStreamID)
	assert.Equal(t, []string{"id", "created"}, entry.KeyProperties)
	assert.Equal(t, INCREMENTAL, entry.ReplicationMethod)
	assert.True(t, entry.Selected())

	root := entry.metadataFor()
	require.NotNil(t, root)
	assert.Equal(t, "email_campaigns", root["parent-tap-stream-id"])
	assert.Equal(t, []string{"created"}, root["valid-replication-keys"])

	assert.Equal(t, "automatic", entry.metadataFor("properties", "created")["inclusion"])
	assert.Equal(t, "available", entry.metadataFor("properties", "recipient")["inclusion"])
}

func TestSelectionFromCatalogJSON(t *testing.T) {
	source := testStream()
	raw := `{"streams":[{"tap_stream_id":"email_events","stream":"email_events","schema":{},"key_properties":["id","created"],
		"metadata":[
			{"breadcrumb":[],"metadata":{"selected":true}},
			{"breadcrumb":["properties","recipient"],"metadata":{"selected":false}},
			{"breadcrumb":["properties","created"],"metadata":{"selected":false}}
		]}]}`

	catalog := &Catalog{}
	require.NoError(t, json.Unmarshal([]byte(raw), catalog))

	entry, found := catalog.Get("email_events")
	require.True(t, found)
	assert.True(t, entry.Selected())

	properties := entry.SelectedProperties(source)
	assert.True(t, properties.Exists("id"))
	assert.True(t, properties.Exists("created"), "replication key is automatic")
	assert.True(t, properties.Exists("sentBy"))
	assert.False(t, properties.Exists("recipient"))

	_, found = catalog.Get("email_campaigns")
	assert.False(t, found)
}

func TestUnselectedWithoutMetadata(t *testing.T) {
	entry := &CatalogEntry{TapStreamID: "email_events"}
	assert.False(t, entry.Selected())

	entry.Metadata = []Metadata{{Breadcrumb: []string{}, Metadata: map[string]any{"selected-by-default": true}}}
	assert.True(t, entry.Selected())
}

func TestCatalogEntryValidate(t *testing.T) {
	source := testStream()

	entry := source.Wrap()
	assert.NoError(t, entry.Validate(source))

	entry.ReplicationMethod = FULLREFRESH
	assert.NoError(t, entry.Validate(source))

	entry.ReplicationKey = "recipient"
	assert.Error(t, entry.Validate(source))

	entry = source.Wrap()
	entry.ReplicationMethod = "LOG_BASED"
	assert.Error(t, entry.Validate(source))

	entry = source.Wrap()
	entry.KeyProperties = []string{"recipient"}
	assert.Error(t, entry.Validate(source))

	fullTable := NewStream("email_campaigns").WithPrimaryKey("id")
	entry = fullTable.Wrap()
	entry.ReplicationMethod = INCREMENTAL
	assert.Error(t, entry.Validate(fullTable))
}

func TestConfiguredStreamFilterAndSchema(t *testing.T) {
	source := testStream()
	entry := source.Wrap()
	entry.metadataFor("properties", "sentBy")["selected"] = false

	configured := NewConfiguredStream(source, entry)
	record := configured.FilterRecord(Record{"id": "a", "created": 1, "recipient": "x@y.z", "sentBy": map[string]any{"id": "s"}, "extra": true})

	assert.Equal(t, Record{"id": "a", "created": 1, "recipient": "x@y.z"}, record)
	assert.NotContains(t, configured.Schema().Properties, "sentBy")
	assert.Contains(t, source.Schema.Properties, "sentBy", "source schema stays untouched")
}

func TestConfiguredStreamFullTableOverride(t *testing.T) {
	source := testStream()
	entry := source.Wrap()
	entry.ReplicationMethod = FULLREFRESH

	configured := NewConfiguredStream(source, entry)
	assert.Equal(t, FULLREFRESH, configured.GetSyncMode())
	assert.Empty(t, configured.Cursor())

	state := NewState()
	state.SetBookmark("email_events", "created", 10)
	configured.SetupState(state)
	assert.Nil(t, configured.InitialState())
}
