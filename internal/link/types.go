// Package link defines the wire-level data model shared by the radio
// driver and the protocol engine: the 10-byte transceiver configuration
// register image, the 16-byte protocol frame, and the persisted pairing
// record, together with the pure codecs that translate between their Go
// representations and their on-chip/on-air byte layouts.
package link

// ClkOut is one of the four clock-output frequencies the transceiver can
// derive from its crystal.
type ClkOut uint8

const (
	ClkOut4000000 ClkOut = 0x00
	ClkOut2000000 ClkOut = 0x01
	ClkOut1000000 ClkOut = 0x02
	ClkOut500000  ClkOut = 0x03
)

// RxPower selects the receiver's sensitivity profile.
type RxPower uint8

const (
	RxPowerNormal  RxPower = 0x00
	RxPowerReduced RxPower = 0x01
)

// RadioConfig is the semantic view of the 10-byte configuration register
// block. See EncodeConfig/DecodeConfig for the bit-exact on-chip layout.
type RadioConfig struct {
	Channel         uint16  // 9-bit channel index, 0-511
	Band            bool    // false = 434MHz, true = 868/915MHz
	TxPower         int8    // one of -10, -2, 6, 10 dBm
	RxPower         RxPower
	AutoRetransmit  bool
	RxAddressWidth  uint8 // 1-4
	TxAddressWidth  uint8 // 1-4
	RxPayloadWidth  uint8 // 1-32
	TxPayloadWidth  uint8 // 1-32
	RxAddress       uint32
	ClkOutFrequency ClkOut
	ClkOutEnable    bool
	XtalFrequencyHz uint32 // multiple of 4MHz, 4-32MHz
	CRCEnable       bool
	CRCBits         uint8 // 0, 8, or 16
}

// Frequency returns the derived RF carrier frequency in Hz. It is never
// stored on the chip; the chip only knows Channel and Band.
func (c RadioConfig) Frequency() uint32 {
	base := uint32(422_400_000) + uint32(c.Channel)*100_000
	if c.Band {
		return base * 2
	}
	return base
}

// DeviceType identifies the class of node on the RF network.
type DeviceType uint8

const (
	DeviceTypeBroadcast     DeviceType = 0x00
	DeviceTypeMainUnit      DeviceType = 0x01
	DeviceTypeRemoteControl DeviceType = 0x03
	DeviceTypeCO2Sensor     DeviceType = 0x18
)

// Command identifies the meaning of a Frame's 9-byte payload.
type Command uint8

const (
	CommandSetVoltage      Command = 0x01
	CommandSetSpeed        Command = 0x02
	CommandSetTimer        Command = 0x03
	CommandJoinRequest     Command = 0x04
	CommandSetSpeedReply   Command = 0x05
	CommandJoinOpen        Command = 0x06
	CommandFanSettings     Command = 0x07
	CommandFrame0B         Command = 0x0B
	CommandJoinAck         Command = 0x0C
	CommandQueryNetwork    Command = 0x0D
	CommandQueryDevice     Command = 0x10
	CommandSetVoltageReply Command = 0x1D
)

// Speed is one of the five fan speed presets.
type Speed uint8

const (
	SpeedAuto   Speed = 0x00
	SpeedLow    Speed = 0x01
	SpeedMedium Speed = 0x02
	SpeedHigh   Speed = 0x03
	SpeedMax    Speed = 0x04
)

// Frame is a 16-byte fixed-size protocol unit: a 7-byte header plus a
// 9-byte payload whose interpretation depends on Command.
type Frame struct {
	RxType         DeviceType
	RxID           uint8
	TxType         DeviceType
	TxID           uint8
	TTL            uint8
	Command        Command
	ParameterCount uint8
	Payload        [9]byte
}

// PairingConfig is the persisted record that lets the engine skip
// discovery on a warm start. All fields non-zero means a prior pairing
// completed successfully.
type PairingConfig struct {
	NetworkID    uint32
	MyType       DeviceType
	MyID         uint8
	MainUnitType DeviceType
	MainUnitID   uint8
}

// Valid reports whether every field of the record is populated, the
// on-load test for "a pairing already exists".
func (p PairingConfig) Valid() bool {
	return p.NetworkID != 0 && p.MyType != 0 && p.MyID != 0 && p.MainUnitType != 0 && p.MainUnitID != 0
}
