package destination

import (
	"github.com/datazip-inc/tap-hubspot/types"
)

// Writer is the output side used by drivers; WriterPool implements it
type Writer interface {
	// NewThread returns functions to insert records of a stream and to release the thread
	NewThread(stream *types.ConfiguredStream) (InsertFunction, CloseFunction, error)
	// WriteSchema emits the SCHEMA message of a stream if not already written
	WriteSchema(stream *types.ConfiguredStream) error
	// WriteState emits a STATE message
	WriteState(state *types.State) error
}

var _ Writer = (*WriterPool)(nil)
