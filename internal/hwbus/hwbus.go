// Package hwbus implements nrf905.Bus and nrf905.GPIO over real SPI and
// GPIO hardware via periph.io/x/periph, grounded on the pack's direct
// spireg/gpioreg wiring for sub-GHz transceivers.
package hwbus

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPIBus wraps a periph.io SPI connection as nrf905.Bus. Transact
// performs a single full-duplex exchange; the transceiver's chip
// select is whatever the SPI port's CS line is already wired to.
type SPIBus struct {
	conn spi.Conn
}

// OpenSPIBus initializes the periph.io host drivers and opens the named
// SPI port (empty string selects the first available port) at the
// clock speed the transceiver's datasheet allows.
func OpenSPIBus(port string) (*SPIBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, err
	}
	conn, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	return &SPIBus{conn: conn}, nil
}

// Transact performs one full-duplex SPI exchange, overwriting buf in
// place with the device's response.
func (b *SPIBus) Transact(buf []byte) error {
	return b.conn.Tx(buf, buf)
}

// Line wraps a single periph.io GPIO pin as nrf905.GPIO.
type Line struct {
	pin gpio.PinIO
}

// OpenLine resolves a GPIO pin by its periph.io name (e.g. "GPIO17")
// and configures it for output, driven low initially.
func OpenLine(name string) (*Line, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errUnknownPin(name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, err
	}
	return &Line{pin: pin}, nil
}

// OpenInputLine resolves a GPIO pin for input, used for the DR/AM/CD
// status lines.
func OpenInputLine(name string) (*Line, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errUnknownPin(name)
	}
	if err := pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, err
	}
	return &Line{pin: pin}, nil
}

func (l *Line) Set(level bool) error {
	return l.pin.Out(gpio.Level(level))
}

func (l *Line) Get() (bool, error) {
	return l.pin.Read() == gpio.High, nil
}

type errUnknownPin string

func (e errUnknownPin) Error() string { return "hwbus: unknown GPIO pin " + string(e) }
