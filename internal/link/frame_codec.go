package link

// FrameSize is the fixed size in bytes of every protocol frame.
const FrameSize = 16

const payloadSize = FrameSize - 7

// EncodeFrame packs a Frame into its 16-byte wire form: the 7-byte
// header verbatim followed by the 9-byte payload. Frame.Payload is
// already little-endian encoded by the caller for any multi-byte field
// it carries (see the per-command payload builders in internal/engine).
func EncodeFrame(f Frame) [FrameSize]byte {
	var buf [FrameSize]byte
	buf[0] = byte(f.RxType)
	buf[1] = f.RxID
	buf[2] = byte(f.TxType)
	buf[3] = f.TxID
	buf[4] = f.TTL
	buf[5] = byte(f.Command)
	buf[6] = f.ParameterCount
	copy(buf[7:], f.Payload[:])
	return buf
}

// DecodeFrame unpacks a 16-byte wire buffer into a Frame. It never
// fails: any byte pattern is a structurally valid Frame, since header
// fields have no reserved bit positions. Semantic validation (unknown
// Command, identity mismatch) is the protocol engine's responsibility.
func DecodeFrame(buf [FrameSize]byte) Frame {
	var f Frame
	f.RxType = DeviceType(buf[0])
	f.RxID = buf[1]
	f.TxType = DeviceType(buf[2])
	f.TxID = buf[3]
	f.TTL = buf[4]
	f.Command = Command(buf[5])
	f.ParameterCount = buf[6]
	copy(f.Payload[:], buf[7:])
	return f
}
