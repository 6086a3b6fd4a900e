package types

// ConfiguredStream binds a source stream to its catalog entry and state for one run
type ConfiguredStream struct {
	Stream *Stream

	selected                bool
	properties              *Set[string]
	syncMode                SyncMode
	initialCursorStateValue any // Cached initial state value
	state                   *State
}

// NewConfiguredStream binds source to entry; a nil entry selects every property
func NewConfiguredStream(source *Stream, entry *CatalogEntry) *ConfiguredStream {
	if entry == nil {
		entry = source.Wrap()
	}

	syncMode := source.SyncMode
	if entry.ReplicationMethod != "" {
		syncMode = entry.ReplicationMethod
	}

	return &ConfiguredStream{
		Stream:     source,
		selected:   entry.Selected(),
		properties: entry.SelectedProperties(source),
		syncMode:   syncMode,
	}
}

func (s *ConfiguredStream) ID() string {
	return s.Stream.ID()
}

func (s *ConfiguredStream) Name() string {
	return s.Stream.Name
}

func (s *ConfiguredStream) Parent() string {
	return s.Stream.Parent
}

func (s *ConfiguredStream) Selected() bool {
	return s.selected
}

// Schema returns the schema restricted to the selected properties
func (s *ConfiguredStream) Schema() *Schema {
	return s.Stream.Schema.Select(s.properties)
}

func (s *ConfiguredStream) KeyProperties() []string {
	return s.Stream.KeyProperties.Array()
}

func (s *ConfiguredStream) GetSyncMode() SyncMode {
	return s.syncMode
}

func (s *ConfiguredStream) Cursor() string {
	if s.syncMode != INCREMENTAL {
		return ""
	}
	return s.Stream.ReplicationKey
}

// FilterRecord drops the properties deselected in the catalog
func (s *ConfiguredStream) FilterRecord(record Record) Record {
	filtered := make(Record, len(record))
	for key, value := range record {
		if s.properties.Exists(key) {
			filtered[key] = value
		}
	}
	return filtered
}

// SetupState attaches the run state and caches the bookmark of incremental streams
func (s *ConfiguredStream) SetupState(state *State) {
	s.state = state
	if s.Cursor() == "" {
		return
	}

	if bookmark, found := state.GetBookmark(s.Name()); found && bookmark.ReplicationKey == s.Cursor() {
		s.initialCursorStateValue = bookmark.ReplicationKeyValue
	}
}

func (s *ConfiguredStream) InitialState() any {
	return s.initialCursorStateValue
}

func (s *ConfiguredStream) SetStateCursor(value any) {
	if s.state == nil || s.Cursor() == "" {
		return
	}
	s.state.SetBookmark(s.Name(), s.Cursor(), value)
}
