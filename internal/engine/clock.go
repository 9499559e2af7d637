package engine

import (
	"time"

	"github.com/foxcroft/ventlink/internal/link"
)

// Clock abstracts wall-clock time for the startup delay and the query
// interval; reply and airway timeouts are timed by the scheduler's own
// clock. *nrf905.SystemClock satisfies this
// structurally; tests use a fake that only needs Now.
type Clock interface {
	Now() time.Time
}

// PairingStore persists and loads the PairingConfig that lets the
// engine skip discovery on a warm start. *storage.FileStore satisfies
// this structurally.
type PairingStore interface {
	Load() (link.PairingConfig, bool, error)
	Save(link.PairingConfig) error
}
