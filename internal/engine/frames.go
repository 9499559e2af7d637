package engine

import (
	"encoding/binary"

	"github.com/foxcroft/ventlink/internal/link"
)

// discoveryRxType is the literal rx_type the main unit watches for
// during the pairing window. It is not one of the named DeviceType
// values: the main unit treats it as "anyone announcing themselves",
// distinct from DeviceTypeBroadcast.
const discoveryRxType = link.DeviceType(0x04)

func (e *Engine) buildAnnounceFrame() link.Frame {
	f := link.Frame{
		RxType:         discoveryRxType,
		RxID:           0,
		TxType:         e.myType,
		TxID:           e.myID,
		TTL:            TTL,
		Command:        link.CommandJoinAck,
		ParameterCount: 4,
	}
	binary.LittleEndian.PutUint32(f.Payload[0:4], NetworkLinkID)
	return f
}

func (e *Engine) buildJoinRequestFrame() link.Frame {
	f := link.Frame{
		RxType:         e.mainUnitType,
		RxID:           e.mainUnitID,
		TxType:         e.myType,
		TxID:           e.myID,
		TTL:            TTL,
		Command:        link.CommandJoinRequest,
		ParameterCount: 4,
	}
	binary.LittleEndian.PutUint32(f.Payload[0:4], e.networkID)
	return f
}

func (e *Engine) buildFrame0BReplyFrame() link.Frame {
	return link.Frame{
		RxType:  e.mainUnitType,
		RxID:    e.mainUnitID,
		TxType:  e.myType,
		TxID:    e.myID,
		TTL:     TTL,
		Command: link.CommandFrame0B,
	}
}

func (e *Engine) buildQueryDeviceFrame() link.Frame {
	return link.Frame{
		RxType:  e.mainUnitType,
		RxID:    e.mainUnitID,
		TxType:  e.myType,
		TxID:    e.myID,
		TTL:     TTL,
		Command: link.CommandQueryDevice,
	}
}

func (e *Engine) buildSpeedFrame(speed uint8, timer uint16) link.Frame {
	f := link.Frame{
		RxType: e.mainUnitType,
		RxID:   e.mainUnitID,
		TxType: e.myType,
		TxID:   e.myID,
		TTL:    TTL,
	}
	if timer > 0 {
		f.Command = link.CommandSetTimer
		f.ParameterCount = 3
		f.Payload[0] = speed
		binary.LittleEndian.PutUint16(f.Payload[1:3], timer)
	} else {
		f.Command = link.CommandSetSpeed
		f.ParameterCount = 1
		f.Payload[0] = speed
	}
	return f
}

// buildSetSpeedReplyFrame acknowledges the main unit's FAN_SETTINGS
// confirmation with the fixed 3-byte payload the original remote always
// sends back, regardless of the speed that was actually set.
func (e *Engine) buildSetSpeedReplyFrame() link.Frame {
	f := link.Frame{
		RxType:         e.mainUnitType,
		RxID:           e.mainUnitID,
		TxType:         e.myType,
		TxID:           e.myID,
		TTL:            TTL,
		Command:        link.CommandSetSpeedReply,
		ParameterCount: 3,
	}
	f.Payload[0], f.Payload[1], f.Payload[2] = 0x54, 0x03, 0x20
	return f
}

func (e *Engine) matchesIdentity(f link.Frame) bool {
	return f.RxType == e.myType && f.RxID == e.myID
}

func defaultRadioConfig(rxAddress uint32) link.RadioConfig {
	return link.RadioConfig{
		Channel:         PairingChannel,
		Band:            PairingBand,
		TxPower:         10,
		RxPower:         link.RxPowerNormal,
		AutoRetransmit:  false,
		RxAddressWidth:  4,
		TxAddressWidth:  4,
		RxPayloadWidth:  link.FrameSize,
		TxPayloadWidth:  link.FrameSize,
		RxAddress:       rxAddress,
		ClkOutFrequency: link.ClkOut500000,
		ClkOutEnable:    false,
		XtalFrequencyHz: 16_000_000,
		CRCEnable:       true,
		CRCBits:         16,
	}
}
