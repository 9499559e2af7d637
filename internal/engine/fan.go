package engine

import "github.com/charmbracelet/log"

// GetTraits reports the fixed capability set this engine exposes: fixed
// speed presets, no oscillation or direction control.
func (e *Engine) GetTraits() Traits {
	return Traits{Oscillation: false, Speed: true, Direction: false, SpeedCount: SpeedCount}
}

// SetStateObserver registers the callback invoked every time the
// engine publishes a freshly observed or confirmed FanState. Only one
// observer is supported; a later call replaces an earlier one.
func (e *Engine) SetStateObserver(f func(FanState)) { e.observer = f }

// Control clamps the requested speed to [0, SpeedCount] and either
// dispatches it immediately, if the engine is Idle, or stashes it to
// be dispatched the next time Idle is reached.
func (e *Engine) Control(req ControlRequest) {
	speed := e.deriveSpeed(req)
	e.pending = pendingControl{speed: speed, timer: req.Timer, pending: true}

	if e.state == StateIdle {
		if _, err := e.maybeDispatchPending(); err != nil {
			log.Error("control request failed to dispatch", "err", err)
			e.pending = pendingControl{}
			e.state = StateIdle
		}
	}
}

func (e *Engine) deriveSpeed(req ControlRequest) uint8 {
	if req.Speed != nil {
		s := *req.Speed
		if s > SpeedCount {
			s = SpeedCount
		}
		return s
	}
	if req.State != nil && !*req.State {
		return 0
	}
	return e.lastPublished.Speed
}

func (e *Engine) publish(state FanState) {
	e.lastPublished = state
	if e.observer != nil {
		e.observer(state)
	}
}
