// Package nrf905test provides in-memory fakes for nrf905.Bus,
// nrf905.GPIO, and nrf905.Clock so the driver and everything built on
// top of it can be exercised without real SPI hardware, grounded on the
// ring-buffer host stub the teacher pack uses for the same purpose.
package nrf905test

import (
	"sync"
	"time"
)

// FakeBus emulates the transceiver's register file closely enough to
// drive the nrf905.Driver through its full command set.
type FakeBus struct {
	mu sync.Mutex

	Config    [10]byte
	TxAddress [4]byte
	TxPayload []byte
	RxPayload []byte
	Status    byte

	// While ConfigWriteFails is set, every W_CONFIG silently applies a
	// corrupted image, so the driver's read-back verification fails.
	ConfigWriteFails bool

	Transactions [][]byte
}

func NewFakeBus() *FakeBus {
	return &FakeBus{TxPayload: make([]byte, 32), RxPayload: make([]byte, 32)}
}

func (b *FakeBus) Transact(buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	recorded := append([]byte(nil), buf...)
	b.Transactions = append(b.Transactions, recorded)

	if len(buf) == 0 {
		return nil
	}

	switch buf[0] {
	case 0xFF: // NOP
		buf[0] = b.Status
	case 0x00: // W_CONFIG
		n := copy(b.Config[:], buf[1:])
		if b.ConfigWriteFails && n > 0 {
			b.Config[0] ^= 0xFF
		}
		buf[0] = b.Status
	case 0x10: // R_CONFIG
		buf[0] = b.Status
		copy(buf[1:], b.Config[:])
	case 0x20: // W_TX_PAYLOAD
		b.TxPayload = append([]byte(nil), buf[1:]...)
		buf[0] = b.Status
	case 0x21: // R_TX_PAYLOAD
		buf[0] = b.Status
		copy(buf[1:], b.TxPayload)
	case 0x22: // W_TX_ADDRESS
		copy(b.TxAddress[:], buf[1:])
		buf[0] = b.Status
	case 0x23: // R_TX_ADDRESS
		buf[0] = b.Status
		copy(buf[1:], b.TxAddress[:])
	case 0x24: // R_RX_PAYLOAD
		buf[0] = b.Status
		copy(buf[1:], b.RxPayload)
	default:
		buf[0] = b.Status
	}
	return nil
}

// SetStatus updates the status byte the next NOP (or any command) will
// return, simulating a DR/AM edge.
func (b *FakeBus) SetStatus(status byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Status = status
}

// InjectRx stores bytes the next R_RX_PAYLOAD will return.
func (b *FakeBus) InjectRx(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := make([]byte, 32)
	copy(buf, data)
	b.RxPayload = buf
}

// FakeGPIO is a settable/gettable digital line with a recorded history
// of every level it was driven to.
type FakeGPIO struct {
	mu      sync.Mutex
	level   bool
	History []bool
}

func (g *FakeGPIO) Set(level bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.level = level
	g.History = append(g.History, level)
	return nil
}

func (g *FakeGPIO) Get() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level, nil
}

// FakeClock is a manually-advanced Clock: Sleep records the requested
// duration instead of blocking.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	Slept   []time.Duration
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Slept = append(c.Slept, d)
	c.now = c.now.Add(d)
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
