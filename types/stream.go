package types

// Stream is a source stream as declared by the driver
type Stream struct {
	// Name of the Stream, also used as tap_stream_id
	Name string
	// Parent stream feeding child contexts, empty for root streams
	Parent string
	// Possible Schema of the Stream
	Schema *Schema
	// Primary key if available
	KeyProperties *Set[string]
	// Field used for incremental bookmarks
	ReplicationKey string
	// Default replication method
	SyncMode SyncMode
}

func NewStream(name string) *Stream {
	return &Stream{
		Name:          name,
		KeyProperties: NewSet[string](),
		Schema:        PropertiesList(),
		SyncMode:      FULLREFRESH,
	}
}

func (s *Stream) ID() string {
	return s.Name
}

func (s *Stream) WithPrimaryKey(keys ...string) *Stream {
	s.KeyProperties.Insert(keys...)
	return s
}

// WithCursorField makes the stream incremental on the given field
func (s *Stream) WithCursorField(field string) *Stream {
	s.ReplicationKey = field
	s.SyncMode = INCREMENTAL
	return s
}

func (s *Stream) WithSchema(schema *Schema) *Stream {
	s.Schema = schema
	return s
}

func (s *Stream) WithParent(parent string) *Stream {
	s.Parent = parent
	return s
}

// Wrap returns the catalog entry of the stream, selected by default
func (s *Stream) Wrap() *CatalogEntry {
	entry := &CatalogEntry{
		TapStreamID:       s.Name,
		Stream:            s.Name,
		Schema:            s.Schema.Clone(),
		KeyProperties:     s.KeyProperties.Array(),
		ReplicationKey:    s.ReplicationKey,
		ReplicationMethod: s.SyncMode,
	}

	root := map[string]any{
		"inclusion":                 "available",
		"selected":                  true,
		"selected-by-default":       true,
		"table-key-properties":      s.KeyProperties.Array(),
		"forced-replication-method": s.SyncMode,
	}
	if s.ReplicationKey != "" {
		root["valid-replication-keys"] = []string{s.ReplicationKey}
	}
	if s.Parent != "" {
		root["parent-tap-stream-id"] = s.Parent
	}
	entry.Metadata = append(entry.Metadata, Metadata{Breadcrumb: []string{}, Metadata: root})

	for _, name := range s.Schema.PropertyNames() {
		inclusion := "available"
		if s.KeyProperties.Exists(name) || name == s.ReplicationKey {
			inclusion = "automatic"
		}
		entry.Metadata = append(entry.Metadata, Metadata{
			Breadcrumb: []string{"properties", name},
			Metadata: map[string]any{
				"inclusion":           inclusion,
				"selected-by-default": true,
			},
		})
	}

	return entry
}

func StreamsToMap(streams ...*Stream) map[string]*Stream {
	output := make(map[string]*Stream)
	for _, stream := range streams {
		output[stream.ID()] = stream
	}

	return output
}
