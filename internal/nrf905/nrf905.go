// Package nrf905 drives a bus-attached sub-GHz narrowband transceiver:
// four power/mode states, a bit-packed configuration register block, and
// an edge-triggered DATA_READY/ADDRESS_MATCH status machine. The chip
// itself is accessed only through the Bus and GPIO interfaces, so the
// driver runs unmodified against real SPI hardware (see
// internal/hwbus) or an in-memory fake (see internal/nrf905/nrf905test).
package nrf905

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/foxcroft/ventlink/internal/link"
)

// Mode is one of the transceiver's four power/operating states.
type Mode uint8

const (
	PowerDown Mode = iota
	Idle
	Receive
	Transmit
)

func (m Mode) String() string {
	switch m {
	case PowerDown:
		return "PowerDown"
	case Idle:
		return "Idle"
	case Receive:
		return "Receive"
	case Transmit:
		return "Transmit"
	default:
		return "Unknown"
	}
}

// Bus is a single full-duplex byte exchange with chip-select framing
// provided by the Bus implementation; the driver never drives
// chip-select itself. Transact overwrites buf
// in place with the bytes returned by the device; buf[0] is both the
// outgoing command byte and, on return, the device's status byte.
type Bus interface {
	Transact(buf []byte) error
}

// GPIO is a single digital line, either driven (mode-control pins) or
// sampled (status pins).
type GPIO interface {
	Set(level bool) error
	Get() (bool, error)
}

// Clock abstracts wall-clock time so the mandatory post-power-on settle
// delay can be faked out in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the production Clock backed by the standard library.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Pins bundles the driver's GPIO collaborators. CD is optional: when
// nil, AirwayBusy always reports false.
type Pins struct {
	PWR, CE, TXEN GPIO
	DR, AM        GPIO
	CD            GPIO
}

// powerOnSettle is the mandatory delay after PWR is first asserted,
// before TXEN may be asserted.
const powerOnSettle = 3 * time.Millisecond

// maxFrameSize is the largest payload the chip's TX/RX payload registers
// can hold.
const maxFrameSize = 32

// Driver owns one transceiver: mode control, register I/O, and the
// edge-triggered status poll that turns DR/AM transitions into
// completion events.
type Driver struct {
	bus   Bus
	pins  Pins
	clock Clock

	mode     Mode
	nextMode Mode

	lastStatus byte
	addrMatch  bool

	onTxReady    func()
	onRxComplete func(buf []byte)
}

// New constructs a Driver in PowerDown. Callers register completion
// callbacks with SetOnTxReady/SetOnRxComplete before calling Poll.
func New(bus Bus, pins Pins, clock Clock) *Driver {
	return &Driver{bus: bus, pins: pins, clock: clock, mode: PowerDown}
}

// SetOnTxReady registers the callback invoked exactly once per StartTx
// when the hardware reports TX complete (DR asserted, AM clear).
func (d *Driver) SetOnTxReady(f func()) { d.onTxReady = f }

// SetOnRxComplete registers the callback invoked with the full RX
// payload register contents whenever DR and AM are both asserted.
func (d *Driver) SetOnRxComplete(f func(buf []byte)) { d.onRxComplete = f }

// Mode reports the driver's current power/operating state.
func (d *Driver) Mode() Mode { return d.mode }

// SetMode drives PWR/CE/TXEN to match the requested mode. It does not
// apply the post-power-on settle delay; StartTx is the only caller that
// needs it, since it alone transitions directly out of PowerDown.
func (d *Driver) SetMode(mode Mode) error {
	if err := d.pins.PWR.Set(mode != PowerDown); err != nil {
		return err
	}
	if err := d.pins.CE.Set(mode == Receive || mode == Transmit); err != nil {
		return err
	}
	if err := d.pins.TXEN.Set(mode == Transmit); err != nil {
		return err
	}
	d.mode = mode
	return nil
}

// withIdle runs fn with the chip forced into Idle, then restores
// whatever mode the driver was in beforehand. Every multi-byte register
// command requires this: the chip-select is only safe to use from Idle.
func (d *Driver) withIdle(fn func() error) error {
	prev := d.mode
	if err := d.SetMode(Idle); err != nil {
		return err
	}
	err := fn()
	if restoreErr := d.SetMode(prev); restoreErr != nil && err == nil {
		err = restoreErr
	}
	return err
}

// ReadConfig issues R_CONFIG and decodes the returned register image.
func (d *Driver) ReadConfig() (link.RadioConfig, error) {
	var cfg link.RadioConfig
	err := d.withIdle(func() error {
		buf := make([]byte, 1+link.ConfigSize)
		buf[0] = cmdReadConfig
		if err := d.bus.Transact(buf); err != nil {
			return err
		}
		var image [link.ConfigSize]byte
		copy(image[:], buf[1:])
		cfg = link.DecodeConfig(image)
		return nil
	})
	return cfg, err
}

// WriteConfig issues W_CONFIG, then reads the register block back and
// compares it byte-for-byte against what was written. A mismatch is
// ErrConfigWrite.
func (d *Driver) WriteConfig(cfg link.RadioConfig) error {
	image, err := link.EncodeConfig(cfg)
	if err != nil {
		return err
	}
	return d.withIdle(func() error {
		buf := make([]byte, 1+link.ConfigSize)
		buf[0] = cmdWriteConfig
		copy(buf[1:], image[:])
		if err := d.bus.Transact(buf); err != nil {
			return err
		}

		readBack := make([]byte, 1+link.ConfigSize)
		readBack[0] = cmdReadConfig
		if err := d.bus.Transact(readBack); err != nil {
			return err
		}
		for i := 0; i < link.ConfigSize; i++ {
			if readBack[1+i] != image[i] {
				log.Error("config write verification failed", "offset", i, "want", image[i], "got", readBack[1+i])
				return ErrConfigWrite
			}
		}
		return nil
	})
}

// WriteTxAddress issues W_TX_ADDRESS with addr little-endian.
func (d *Driver) WriteTxAddress(addr uint32) error {
	return d.withIdle(func() error {
		buf := []byte{cmdWriteTxAddress, byte(addr), byte(addr >> 8), byte(addr >> 16), byte(addr >> 24)}
		return d.bus.Transact(buf)
	})
}

// ReadTxAddress issues R_TX_ADDRESS and decodes the little-endian
// address.
func (d *Driver) ReadTxAddress() (uint32, error) {
	var addr uint32
	err := d.withIdle(func() error {
		buf := make([]byte, 5)
		buf[0] = cmdReadTxAddress
		if err := d.bus.Transact(buf); err != nil {
			return err
		}
		addr = uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16 | uint32(buf[4])<<24
		return nil
	})
	return addr, err
}

// WriteTxPayload loads data into the TX payload register. Payloads
// longer than 32 bytes are rejected with ErrInvalidField.
func (d *Driver) WriteTxPayload(data []byte) error {
	if len(data) > maxFrameSize {
		return link.ErrInvalidField
	}
	return d.withIdle(func() error {
		buf := make([]byte, 1+len(data))
		buf[0] = cmdWriteTxPayload
		copy(buf[1:], data)
		return d.bus.Transact(buf)
	})
}

// ReadTxPayload reads back the TX payload register (useful for tests
// and diagnostics; not part of the normal send path).
func (d *Driver) ReadTxPayload(n int) ([]byte, error) {
	if n > maxFrameSize {
		return nil, link.ErrInvalidField
	}
	var out []byte
	err := d.withIdle(func() error {
		buf := make([]byte, 1+n)
		buf[0] = cmdReadTxPayload
		if err := d.bus.Transact(buf); err != nil {
			return err
		}
		out = append([]byte(nil), buf[1:]...)
		return nil
	})
	return out, err
}

// readRxPayload reads the RX payload register. Called internally on a
// DATA_READY+ADDRESS_MATCH edge.
func (d *Driver) readRxPayload(n int) ([]byte, error) {
	var out []byte
	err := d.withIdle(func() error {
		buf := make([]byte, 1+n)
		buf[0] = cmdReadRxPayload
		if err := d.bus.Transact(buf); err != nil {
			return err
		}
		out = append([]byte(nil), buf[1:]...)
		return nil
	})
	return out, err
}

// ReadStatus issues NOP and returns the device status byte: bit 5 is
// DATA_READY, bit 7 is ADDRESS_MATCH.
func (d *Driver) ReadStatus() (byte, error) {
	buf := []byte{cmdNOP}
	if err := d.bus.Transact(buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// StartTx begins a transmission. If the driver is currently PowerDown it
// is brought to Idle first and the mandatory power-on settle delay is
// applied before TXEN is asserted. On the next observed TX-complete
// edge, the driver auto-returns to nextMode and fires the registered
// OnTxReady callback exactly once.
func (d *Driver) StartTx(nextMode Mode) error {
	if d.mode == PowerDown {
		if err := d.SetMode(Idle); err != nil {
			return err
		}
		d.clock.Sleep(powerOnSettle)
	}
	d.nextMode = nextMode
	return d.SetMode(Transmit)
}

// AirwayBusy reports the carrier-detect line. Without a CD pin it always
// reports idle airway.
func (d *Driver) AirwayBusy() (bool, error) {
	if d.pins.CD == nil {
		return false, nil
	}
	return d.pins.CD.Get()
}

// Poll samples the DATA_READY/ADDRESS_MATCH status bits and advances the
// driver-local edge-triggered state machine. It must be called
// repeatedly from the owning loop; only transitions are acted on.
func (d *Driver) Poll() error {
	status, err := d.ReadStatus()
	if err != nil {
		return err
	}
	state := status & (statusBitDR | statusBitAM)
	if state == d.lastStatus {
		return nil
	}
	prevStatus := d.lastStatus
	d.lastStatus = state

	switch state {
	case statusBitDR | statusBitAM:
		d.addrMatch = false
		payload, err := d.readRxPayload(maxFrameSize)
		if err != nil {
			return err
		}
		if d.onRxComplete != nil {
			d.onRxComplete(payload)
		}
	case statusBitDR:
		d.addrMatch = false
		if err := d.SetMode(d.nextMode); err != nil {
			return err
		}
		// Take-and-invoke-once: clear the slot before calling so a
		// callback that itself issues a new StartTx cannot observe
		// its own stale registration.
		if cb := d.onTxReady; cb != nil {
			d.onTxReady = nil
			cb()
		}
	case statusBitAM:
		d.addrMatch = true
		log.Debug("address match")
	case 0:
		if prevStatus != 0 && d.addrMatch {
			d.addrMatch = false
			log.Debug("rx invalid: address match cleared without data ready")
		}
	}
	return nil
}
