package types

import (
	"fmt"
)

// Catalog is the Singer catalog written by discovery and read back on sync
type Catalog struct {
	Streams []*CatalogEntry `json:"streams"`
}

type CatalogEntry struct {
	TapStreamID       string     `json:"tap_stream_id"`
	Stream            string     `json:"stream"`
	Schema            *Schema    `json:"schema"`
	KeyProperties     []string   `json:"key_properties"`
	ReplicationKey    string     `json:"replication_key,omitempty"`
	ReplicationMethod SyncMode   `json:"replication_method,omitempty"`
	Metadata          []Metadata `json:"metadata"`
}

type Metadata struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   map[string]any `json:"metadata"`
}

func GetWrappedCatalog(streams []*Stream) *Catalog {
	catalog := &Catalog{
		Streams: []*CatalogEntry{},
	}
	for _, stream := range streams {
		catalog.Streams = append(catalog.Streams, stream.Wrap())
	}

	return catalog
}

func (c *Catalog) Get(streamID string) (*CatalogEntry, bool) {
	for _, entry := range c.Streams {
		if entry.TapStreamID == streamID {
			return entry, true
		}
	}

	return nil, false
}

func (e *CatalogEntry) metadataFor(breadcrumb ...string) map[string]any {
	for _, md := range e.Metadata {
		if len(md.Breadcrumb) != len(breadcrumb) {
			continue
		}
		match := true
		for i := range breadcrumb {
			if md.Breadcrumb[i] != breadcrumb[i] {
				match = false
				break
			}
		}
		if match {
			return md.Metadata
		}
	}

	return nil
}

// isSelected reads "selected" and falls back to "selected-by-default"
func isSelected(md map[string]any, fallback bool) bool {
	if md == nil {
		return fallback
	}
	if selected, ok := md["selected"].(bool); ok {
		return selected
	}
	if selected, ok := md["selected-by-default"].(bool); ok {
		return selected
	}

	return fallback
}

// Selected reports the root breadcrumb selection
func (e *CatalogEntry) Selected() bool {
	return isSelected(e.metadataFor(), false)
}

// SelectedProperties returns the properties of source that stay in records;
// automatic properties are always kept
func (e *CatalogEntry) SelectedProperties(source *Stream) *Set[string] {
	properties := NewSet[string]()
	for _, name := range source.Schema.PropertyNames() {
		if source.KeyProperties.Exists(name) || name == source.ReplicationKey {
			properties.Insert(name)
			continue
		}

		md := e.metadataFor("properties", name)
		if inclusion, _ := md["inclusion"].(string); inclusion == "unsupported" {
			continue
		}
		if isSelected(md, true) {
			properties.Insert(name)
		}
	}

	return properties
}

// Validate checks the configured entry against the source stream
func (e *CatalogEntry) Validate(source *Stream) error {
	switch e.ReplicationMethod {
	case "", FULLREFRESH:
	case INCREMENTAL:
		if source.ReplicationKey == "" {
			return fmt.Errorf("invalid replication method [%s]; stream supports only %s", e.ReplicationMethod, FULLREFRESH)
		}
	default:
		return fmt.Errorf("invalid replication method [%s]; valid are %s and %s", e.ReplicationMethod, FULLREFRESH, INCREMENTAL)
	}

	if e.ReplicationKey != "" && e.ReplicationKey != source.ReplicationKey {
		return fmt.Errorf("invalid replication key [%s]; valid is [%s]", e.ReplicationKey, source.ReplicationKey)
	}

	for _, key := range e.KeyProperties {
		if !source.KeyProperties.Exists(key) {
			return fmt.Errorf("difference found with key properties: %v, source defines %v", e.KeyProperties, source.KeyProperties)
		}
	}

	return nil
}
