// Package engine implements the pairing and control protocol that sits
// on top of the radio driver and the RF scheduler: the four-step
// discovery handshake that migrates from the shared pairing address to
// a private per-installation network address, and the steady-state
// query/control loop once paired.
package engine

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/foxcroft/ventlink/internal/link"
	"github.com/foxcroft/ventlink/internal/nrf905"
	"github.com/foxcroft/ventlink/internal/scheduler"
)

// Engine drives one paired relationship with a single main unit. It
// owns the protocol-level state machine; the radio driver and scheduler
// handle everything below the frame boundary.
type Engine struct {
	driver *nrf905.Driver
	sched  *scheduler.Scheduler
	clock  Clock
	store  PairingStore
	random Entropy

	state     State
	startedAt time.Time

	myType       link.DeviceType
	myID         uint8
	mainUnitType link.DeviceType
	mainUnitID   uint8
	networkID    uint32

	queryInterval time.Duration
	lastQuery     time.Time

	pending pendingControl

	observer      func(FanState)
	lastPublished FanState
}

// New constructs an Engine in its Startup state. driver.SetOnRxComplete
// is wired here; callers must not register their own RX callback on
// driver.
func New(driver *nrf905.Driver, sched *scheduler.Scheduler, clock Clock, store PairingStore, random Entropy) *Engine {
	e := &Engine{
		driver:        driver,
		sched:         sched,
		clock:         clock,
		store:         store,
		random:        random,
		state:         StateStartup,
		startedAt:     clock.Now(),
		queryInterval: DefaultQueryInterval,
	}
	driver.SetOnRxComplete(e.handleRxComplete)
	return e
}

// State reports the engine's current top-level state.
func (e *Engine) State() State { return e.state }

// Loop advances the engine by one iteration: it polls the driver and
// scheduler, then drives whatever state-specific work is due. It must
// be called repeatedly from the owning loop. At most one engine
// transition happens per call: a state entered during this call's poll
// or tick has its state-specific work done on the next call.
func (e *Engine) Loop() error {
	before := e.state
	if err := e.driver.Poll(); err != nil {
		return err
	}
	if err := e.sched.Tick(); err != nil {
		return err
	}

	if e.state == StateWaitSetSpeedConfirm && e.sched.State() == scheduler.StateIdle {
		e.state = StateIdle
	}
	if e.state != before {
		return nil
	}

	switch e.state {
	case StateStartup:
		return e.tickStartup()
	case StateIdle:
		return e.dispatchIdle()
	default:
		return nil
	}
}

func (e *Engine) tickStartup() error {
	if e.clock.Now().Sub(e.startedAt) < StartupDelay {
		return nil
	}

	cfg, ok, err := e.store.Load()
	if err != nil {
		return err
	}
	if ok && cfg.Valid() {
		e.myType = cfg.MyType
		e.myID = cfg.MyID
		e.mainUnitType = cfg.MainUnitType
		e.mainUnitID = cfg.MainUnitID
		e.networkID = cfg.NetworkID

		if err := e.driver.WriteConfig(defaultRadioConfig(e.networkID)); err != nil {
			return err
		}
		if err := e.driver.WriteTxAddress(e.networkID); err != nil {
			return err
		}

		log.Info("resuming prior pairing", "network_id", e.networkID, "main_unit_id", e.mainUnitID)
		e.state = StateIdle
		e.lastQuery = e.startedAt.Add(-e.queryInterval - time.Second)
		return nil
	}

	return e.startDiscovery()
}

func (e *Engine) startDiscovery() error {
	e.myType = link.DeviceTypeRemoteControl
	e.myID = uint8(deviceIDMin + e.random.Uint32()%uint32(deviceIDMax-deviceIDMin+1))
	e.networkID = NetworkLinkID

	if err := e.driver.WriteConfig(defaultRadioConfig(NetworkLinkID)); err != nil {
		return err
	}
	if err := e.driver.WriteTxAddress(NetworkLinkID); err != nil {
		return err
	}

	log.Info("starting discovery", "my_id", e.myID)
	e.state = StateDiscoveryWaitForLinkRequest
	return e.transmit(e.buildAnnounceFrame(), TxRetries, e.restartDiscovery)
}

func (e *Engine) restartDiscovery() {
	log.Warn("discovery step timed out, restarting")
	if err := e.startDiscovery(); err != nil {
		log.Error("failed to restart discovery", "err", err)
	}
}

func (e *Engine) transmit(f link.Frame, rxRetries int, onTimeout func()) error {
	buf := link.EncodeFrame(f)
	return e.sched.Transmit(buf[:], rxRetries, onTimeout)
}

// handleRxComplete is the driver's OnRxComplete callback: it decodes
// the first FrameSize bytes of whatever the chip delivered and
// dispatches on the engine's current state.
func (e *Engine) handleRxComplete(buf []byte) {
	if len(buf) < link.FrameSize {
		log.Warn("rx payload shorter than a frame", "len", len(buf))
		return
	}
	var raw [link.FrameSize]byte
	copy(raw[:], buf[:link.FrameSize])
	f := link.DecodeFrame(raw)

	var err error
	switch e.state {
	case StateDiscoveryWaitForLinkRequest:
		err = e.onJoinOpen(f)
	case StateDiscoveryWaitForJoinResponse:
		err = e.onFrame0B(f)
	case StateDiscoveryJoinComplete:
		err = e.onQueryNetwork(f)
	case StateWaitQueryResponse:
		err = e.onQueryResponse(f)
	case StateWaitSetSpeedResponse:
		err = e.onSetSpeedResponse(f)
	default:
		return
	}
	if err != nil {
		log.Debug("dropped frame", "state", e.state, "command", f.Command, "err", err)
	}
}

func (e *Engine) onJoinOpen(f link.Frame) error {
	if f.Command != link.CommandJoinOpen {
		return ErrUnexpectedFrame
	}
	e.mainUnitType = f.TxType
	e.mainUnitID = f.TxID
	e.networkID = le32(f.Payload[0:4])

	if err := e.driver.WriteConfig(defaultRadioConfig(e.networkID)); err != nil {
		return err
	}
	if err := e.driver.WriteTxAddress(e.networkID); err != nil {
		return err
	}

	e.sched.RFComplete()
	e.state = StateDiscoveryWaitForJoinResponse
	return e.transmit(e.buildJoinRequestFrame(), TxRetries, e.restartDiscovery)
}

func (e *Engine) onFrame0B(f link.Frame) error {
	if f.Command != link.CommandFrame0B {
		return ErrUnexpectedFrame
	}
	if f.RxType != e.myType || f.RxID != e.myID || f.TxType != e.mainUnitType || f.TxID != e.mainUnitID {
		return ErrUnexpectedFrame
	}

	e.sched.RFComplete()
	e.state = StateDiscoveryJoinComplete
	return e.transmit(e.buildFrame0BReplyFrame(), TxRetries, e.restartDiscovery)
}

func (e *Engine) onQueryNetwork(f link.Frame) error {
	if f.Command != link.CommandQueryNetwork {
		return ErrUnexpectedFrame
	}

	e.sched.RFComplete()
	cfg := link.PairingConfig{
		NetworkID:    e.networkID,
		MyType:       e.myType,
		MyID:         e.myID,
		MainUnitType: e.mainUnitType,
		MainUnitID:   e.mainUnitID,
	}
	if err := e.store.Save(cfg); err != nil {
		return err
	}

	log.Info("pairing complete", "network_id", e.networkID, "main_unit_id", e.mainUnitID)
	e.state = StateIdle
	e.lastQuery = e.clock.Now().Add(-e.queryInterval - time.Second)
	return nil
}

func (e *Engine) onQueryResponse(f link.Frame) error {
	if f.Command != link.CommandFanSettings || !e.matchesIdentity(f) {
		return ErrUnexpectedFrame
	}
	e.sched.RFComplete()
	e.publish(FanState{On: f.Payload[0] > 0, Speed: f.Payload[0]})
	e.state = StateIdle
	return nil
}

func (e *Engine) onSetSpeedResponse(f link.Frame) error {
	if f.Command != link.CommandFanSettings || !e.matchesIdentity(f) {
		return ErrUnexpectedFrame
	}
	e.sched.RFComplete()
	e.publish(FanState{On: f.Payload[0] > 0, Speed: f.Payload[0]})

	e.state = StateWaitSetSpeedConfirm
	return e.transmit(e.buildSetSpeedReplyFrame(), scheduler.FireAndForget, nil)
}

// dispatchIdle is called on every Loop iteration while the engine is
// Idle: it sends a stashed control request if one is pending, otherwise
// it polls the main unit once queryInterval has elapsed.
func (e *Engine) dispatchIdle() error {
	if dispatched, err := e.maybeDispatchPending(); dispatched || err != nil {
		return err
	}

	if e.clock.Now().Sub(e.lastQuery) < e.queryInterval {
		return nil
	}
	e.lastQuery = e.clock.Now()
	e.state = StateWaitQueryResponse
	return e.transmit(e.buildQueryDeviceFrame(), TxRetries, e.onQueryTimeout)
}

// onQueryTimeout returns to Idle so the next query interval simply
// tries again; a single missed poll is not an error worth escalating.
func (e *Engine) onQueryTimeout() {
	log.Debug("query timed out")
	e.state = StateIdle
}

func (e *Engine) maybeDispatchPending() (bool, error) {
	if !e.pending.pending {
		return false, nil
	}
	e.pending.pending = false
	e.state = StateWaitSetSpeedResponse
	err := e.transmit(e.buildSpeedFrame(e.pending.speed, e.pending.timer), TxRetries, e.onSetSpeedTimeout)
	return true, err
}

func (e *Engine) onSetSpeedTimeout() {
	log.Debug("set-speed request timed out")
	e.state = StateIdle
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
