package types

import "time"

type MessageType string

const (
	SchemaMessage MessageType = "SCHEMA"
	RecordMessage MessageType = "RECORD"
	StateMessage  MessageType = "STATE"
)

type SchemaMsg struct {
	Type               MessageType `json:"type"`
	Stream             string      `json:"stream"`
	Schema             *Schema     `json:"schema"`
	KeyProperties      []string    `json:"key_properties"`
	BookmarkProperties []string    `json:"bookmark_properties,omitempty"`
}

type RecordMsg struct {
	Type          MessageType `json:"type"`
	Stream        string      `json:"stream"`
	Record        Record      `json:"record"`
	TimeExtracted time.Time   `json:"time_extracted"`
}

type StateMsg struct {
	Type  MessageType `json:"type"`
	Value *State      `json:"value"`
}
