package scheduler

import "time"

// Fixed timing contracts for the RF scheduler. These are not
// configurable: they are properties of the protocol this scheduler
// implements, not of any particular deployment.
const (
	// ReplyTimeout is how long the scheduler waits for a reply after a
	// transmission before retrying or giving up.
	ReplyTimeout = 1000 * time.Millisecond

	// AirwayWaitCeiling is how long the scheduler waits for a clear
	// channel before giving up on a transmit request entirely.
	AirwayWaitCeiling = 5000 * time.Millisecond

	// TxFrames is the number of on-air retransmits the driver performs
	// per StartTx call (a hardware-level property the scheduler assumes
	// but does not itself control).
	TxFrames = 4
)

// FireAndForget is the sentinel retry count meaning "do not expect a
// reply": the scheduler returns to Idle as soon as TX completes.
const FireAndForget = -1
