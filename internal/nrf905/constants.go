package nrf905

// Command bytes understood by the transceiver's bus interface.
const (
	cmdNOP            = 0xFF
	cmdWriteConfig    = 0x00
	cmdReadConfig     = 0x10
	cmdWriteTxPayload = 0x20
	cmdReadTxPayload  = 0x21
	cmdWriteTxAddress = 0x22
	cmdReadTxAddress  = 0x23
	cmdReadRxPayload  = 0x24
	cmdChannelConfig  = 0x80
)

// Status register bit positions.
const (
	statusBitDR byte = 1 << 5 // DATA_READY
	statusBitAM byte = 1 << 7 // ADDRESS_MATCH
)
