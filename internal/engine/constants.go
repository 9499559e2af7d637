package engine

import "time"

// Fixed physical-layer and protocol parameters. None of these are
// configurable from outside the engine: they are properties of the
// fan family this engine impersonates a remote control for.
const (
	// StartupDelay is how long the engine waits after construction
	// before any RF activity, including reading a persisted pairing.
	StartupDelay = 15 * time.Second

	// NetworkLinkID is the well-known pairing address used only during
	// discovery.
	NetworkLinkID = 0xA55A5AA5

	// PairingChannel and PairingBand are the fixed radio parameters
	// used for discovery and, once paired, for steady-state traffic.
	PairingChannel = 118
	PairingBand    = true // 868/915MHz band

	// TTL is the fixed frame time-to-live this engine writes into
	// every outgoing frame; it is never decremented.
	TTL = 250

	// TxRetries is the scheduler-level retry count used for every
	// reply-expecting transmission this engine issues.
	TxRetries = 10

	// SpeedCount is the number of non-auto speed presets the fan
	// supports.
	SpeedCount = 4

	// DefaultQueryInterval is how often the engine polls the main
	// unit for its current settings while idle and paired.
	DefaultQueryInterval = 10 * time.Second
)

// deviceIDMin and deviceIDMax bound the random device id the engine
// generates for itself at the start of discovery: never the broadcast
// id (0x00) nor the reserved id (0xFF).
const (
	deviceIDMin = 1
	deviceIDMax = 254
)
