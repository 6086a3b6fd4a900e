package types

type SyncMode string

// values match the Singer forced-replication-method metadata
const (
	FULLREFRESH SyncMode = "FULL_TABLE"
	INCREMENTAL SyncMode = "INCREMENTAL"
)
