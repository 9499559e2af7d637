package nrf905

import (
	"testing"
	"time"

	"github.com/foxcroft/ventlink/internal/link"
	"github.com/foxcroft/ventlink/internal/nrf905/nrf905test"
)

func newTestDriver() (*Driver, *nrf905test.FakeBus, Pins) {
	bus := nrf905test.NewFakeBus()
	pins := Pins{
		PWR:  &nrf905test.FakeGPIO{},
		CE:   &nrf905test.FakeGPIO{},
		TXEN: &nrf905test.FakeGPIO{},
		DR:   &nrf905test.FakeGPIO{},
		AM:   &nrf905test.FakeGPIO{},
	}
	clock := nrf905test.NewFakeClock(time.Unix(0, 0))
	return New(bus, pins, clock), bus, pins
}

func TestModeTransitionPinSequence(t *testing.T) {
	d, _, pins := newTestDriver()

	if err := d.StartTx(Receive); err != nil {
		t.Fatalf("StartTx() error = %v", err)
	}

	pwr := pins.PWR.(*nrf905test.FakeGPIO)
	ce := pins.CE.(*nrf905test.FakeGPIO)
	txen := pins.TXEN.(*nrf905test.FakeGPIO)

	wantPWR := []bool{true, true}
	wantCE := []bool{false, true}
	wantTXEN := []bool{false, true}

	if !equalBools(pwr.History, wantPWR) {
		t.Errorf("PWR history = %v, want %v", pwr.History, wantPWR)
	}
	if !equalBools(ce.History, wantCE) {
		t.Errorf("CE history = %v, want %v", ce.History, wantCE)
	}
	if !equalBools(txen.History, wantTXEN) {
		t.Errorf("TXEN history = %v, want %v", txen.History, wantTXEN)
	}

	if d.Mode() != Transmit {
		t.Fatalf("Mode() after StartTx = %v, want Transmit", d.Mode())
	}
	if d.nextMode != Receive {
		t.Fatalf("nextMode = %v, want Receive", d.nextMode)
	}
}

func TestStartTxFromPowerDownSettles(t *testing.T) {
	bus := nrf905test.NewFakeBus()
	pins := Pins{
		PWR:  &nrf905test.FakeGPIO{},
		CE:   &nrf905test.FakeGPIO{},
		TXEN: &nrf905test.FakeGPIO{},
	}
	clock := nrf905test.NewFakeClock(time.Unix(0, 0))
	d := New(bus, pins, clock)

	if err := d.StartTx(Idle); err != nil {
		t.Fatalf("StartTx() error = %v", err)
	}

	if len(clock.Slept) != 1 || clock.Slept[0] != powerOnSettle {
		t.Fatalf("Slept = %v, want exactly one sleep of %v", clock.Slept, powerOnSettle)
	}
}

func TestPollTxComplete(t *testing.T) {
	d, bus, _ := newTestDriver()

	fired := false
	d.SetOnTxReady(func() { fired = true })

	if err := d.StartTx(Receive); err != nil {
		t.Fatalf("StartTx() error = %v", err)
	}

	bus.SetStatus(statusBitDR)
	if err := d.Poll(); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if !fired {
		t.Fatal("OnTxReady callback did not fire")
	}
	if d.Mode() != Receive {
		t.Fatalf("Mode() after TX complete = %v, want Receive", d.Mode())
	}
}

func TestPollTxReadyFiresOnce(t *testing.T) {
	d, bus, _ := newTestDriver()

	calls := 0
	d.SetOnTxReady(func() { calls++ })

	if err := d.StartTx(Idle); err != nil {
		t.Fatalf("StartTx() error = %v", err)
	}
	bus.SetStatus(statusBitDR)
	if err := d.Poll(); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	// A second Poll with the same status must not re-fire: the status
	// byte hasn't changed, so no new edge is observed.
	if err := d.Poll(); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if calls != 1 {
		t.Fatalf("OnTxReady fired %d times, want exactly 1", calls)
	}
}

func TestPollRxComplete(t *testing.T) {
	d, bus, _ := newTestDriver()

	var received []byte
	d.SetOnRxComplete(func(buf []byte) { received = buf })

	payload := make([]byte, 32)
	payload[0] = 0xAA
	bus.InjectRx(payload)
	bus.SetStatus(statusBitDR | statusBitAM)

	if err := d.Poll(); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if len(received) != 32 || received[0] != 0xAA {
		t.Fatalf("received = %v, want payload starting 0xAA", received)
	}
}

func TestPollAddressMatchWithoutDataIsInvalidRx(t *testing.T) {
	d, bus, _ := newTestDriver()

	bus.SetStatus(statusBitAM)
	if err := d.Poll(); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !d.addrMatch {
		t.Fatal("addrMatch not set after AM-only edge")
	}

	bus.SetStatus(0)
	if err := d.Poll(); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if d.addrMatch {
		t.Fatal("addrMatch should clear on invalid-RX transition")
	}
}

func TestWriteConfigVerifiesReadBack(t *testing.T) {
	d, bus, _ := newTestDriver()
	bus.ConfigWriteFails = true

	cfg := link.RadioConfig{
		Channel:         118,
		Band:            true,
		TxPower:         10,
		RxAddressWidth:  4,
		TxAddressWidth:  4,
		RxPayloadWidth:  16,
		TxPayloadWidth:  16,
		RxAddress:       0x89816EA9,
		ClkOutFrequency: 3,
		XtalFrequencyHz: 16_000_000,
		CRCEnable:       true,
		CRCBits:         16,
	}

	if err := d.WriteConfig(cfg); err != ErrConfigWrite {
		t.Fatalf("WriteConfig() error = %v, want ErrConfigWrite", err)
	}
}

func TestWriteThenReadConfigRoundTrips(t *testing.T) {
	d, _, _ := newTestDriver()

	cfg := link.RadioConfig{
		Channel:         118,
		Band:            true,
		TxPower:         10,
		RxAddressWidth:  4,
		TxAddressWidth:  4,
		RxPayloadWidth:  16,
		TxPayloadWidth:  16,
		RxAddress:       0x89816EA9,
		ClkOutFrequency: 3,
		XtalFrequencyHz: 16_000_000,
		CRCEnable:       true,
		CRCBits:         16,
	}

	if err := d.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}

	got, err := d.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if got != cfg {
		t.Errorf("ReadConfig() = %+v, want %+v", got, cfg)
	}
}

func TestAirwayBusyWithoutCDPin(t *testing.T) {
	d, _, _ := newTestDriver()
	busy, err := d.AirwayBusy()
	if err != nil {
		t.Fatalf("AirwayBusy() error = %v", err)
	}
	if busy {
		t.Fatal("AirwayBusy() = true without a CD pin, want false")
	}
}

func equalBools(got, want []bool) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
