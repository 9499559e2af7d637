// Package scheduler wraps a radio driver with an atomic "send this
// frame, then await a reply with timeout and retry" primitive, gated on
// carrier-sense. It is the sole consumer of the driver's TX-ready
// completion event and the sole thing the protocol engine calls to put
// a frame on the air.
package scheduler

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/foxcroft/ventlink/internal/nrf905"
)

// ErrBusy is returned by Transmit when the scheduler is not Idle. The
// request has no effect; callers are expected to stash it and retry
// once the scheduler reports idle again.
var ErrBusy = errors.New("scheduler: busy")

// State is one of the scheduler's four states.
type State uint8

const (
	StateIdle State = iota
	StateWaitAirwayFree
	StateTxBusy
	StateRxWait
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateWaitAirwayFree:
		return "WaitAirwayFree"
	case StateTxBusy:
		return "TxBusy"
	case StateRxWait:
		return "RxWait"
	default:
		return "Unknown"
	}
}

// RadioDriver is the subset of *nrf905.Driver the scheduler depends on.
// Keeping it narrow lets tests substitute a fake without constructing a
// whole Driver.
type RadioDriver interface {
	StartTx(nextMode nrf905.Mode) error
	AirwayBusy() (bool, error)
	WriteTxPayload(data []byte) error
	SetOnTxReady(func())
}

// Clock abstracts wall-clock time for timeout tests.
type Clock interface {
	Now() time.Time
}

// Scheduler is the four-state CSMA send/retry machine described in
// package scheduler's doc comment.
type Scheduler struct {
	driver RadioDriver
	clock  Clock

	state State

	payload   []byte
	rxRetries int
	onTimeout func()

	airwayWaitStart time.Time
	sendTime        time.Time
}

// New constructs an idle Scheduler over driver.
func New(driver RadioDriver, clock Clock) *Scheduler {
	return &Scheduler{driver: driver, clock: clock, state: StateIdle}
}

// State reports the scheduler's current state.
func (s *Scheduler) State() State { return s.state }

// Transmit loads payload into the driver's TX payload register and
// begins a CSMA-gated send. rxRetries is the number of retransmits to
// attempt if no reply arrives within ReplyTimeout; FireAndForget (-1)
// means no reply is expected at all. onTimeout fires exactly once, from
// Tick, if the airway never clears or all retries are exhausted.
//
// Returns ErrBusy with no effect if the scheduler is not Idle.
func (s *Scheduler) Transmit(payload []byte, rxRetries int, onTimeout func()) error {
	if s.state != StateIdle {
		return ErrBusy
	}
	if err := s.driver.WriteTxPayload(payload); err != nil {
		return err
	}

	s.payload = payload
	s.rxRetries = rxRetries
	s.onTimeout = onTimeout
	s.state = StateWaitAirwayFree
	s.airwayWaitStart = s.clock.Now()
	return nil
}

// RFComplete is the sole cancellation primitive: the protocol engine
// calls it when it has consumed a reply, returning the scheduler to
// Idle and aborting any pending retry countdown.
func (s *Scheduler) RFComplete() {
	if s.state == StateRxWait {
		s.state = StateIdle
	}
}

// Tick advances at most one transition. It must be called from the
// owning loop on every iteration; it drives the WaitAirwayFree and
// RxWait timeouts and the WaitAirwayFree -> TxBusy carrier-sense gate.
func (s *Scheduler) Tick() error {
	switch s.state {
	case StateWaitAirwayFree:
		return s.tickWaitAirwayFree()
	case StateRxWait:
		return s.tickRxWait()
	default:
		return nil
	}
}

func (s *Scheduler) tickWaitAirwayFree() error {
	if s.clock.Now().Sub(s.airwayWaitStart) > AirwayWaitCeiling {
		s.state = StateIdle
		s.fireTimeout()
		return nil
	}

	busy, err := s.driver.AirwayBusy()
	if err != nil {
		return err
	}
	if busy {
		return nil
	}

	s.driver.SetOnTxReady(s.handleTxReady)
	if err := s.driver.StartTx(nrf905.Receive); err != nil {
		return err
	}
	s.state = StateTxBusy
	return nil
}

func (s *Scheduler) tickRxWait() error {
	if s.clock.Now().Sub(s.sendTime) <= ReplyTimeout {
		return nil
	}

	if s.rxRetries > 0 {
		s.rxRetries--
		s.state = StateWaitAirwayFree
		s.airwayWaitStart = s.clock.Now()
		return nil
	}

	s.state = StateIdle
	s.fireTimeout()
	return nil
}

// handleTxReady is registered with the driver fresh before every
// StartTx (take-and-invoke-once: the driver clears its own slot before
// calling), so it never fires more than once per transmission attempt.
func (s *Scheduler) handleTxReady() {
	if s.state != StateTxBusy {
		log.Debug("tx-ready callback fired outside TxBusy", "state", s.state)
		return
	}

	if s.rxRetries < 0 {
		s.state = StateIdle
		return
	}

	s.sendTime = s.clock.Now()
	s.state = StateRxWait
}

func (s *Scheduler) fireTimeout() {
	if cb := s.onTimeout; cb != nil {
		s.onTimeout = nil
		cb()
	}
}
