package link

import "testing"

func sampleConfig() RadioConfig {
	return RadioConfig{
		Channel:         118,
		Band:            true,
		TxPower:         10,
		RxPower:         RxPowerNormal,
		AutoRetransmit:  false,
		RxAddressWidth:  4,
		TxAddressWidth:  4,
		RxPayloadWidth:  16,
		TxPayloadWidth:  16,
		RxAddress:       0x89816EA9,
		ClkOutFrequency: ClkOut500000,
		ClkOutEnable:    false,
		XtalFrequencyHz: 16_000_000,
		CRCEnable:       true,
		CRCBits:         16,
	}
}

func TestEncodeConfigKnownVector(t *testing.T) {
	buf, err := EncodeConfig(sampleConfig())
	if err != nil {
		t.Fatalf("EncodeConfig() error = %v", err)
	}

	want := [ConfigSize]byte{0x76, 0x0E, 0x44, 0x10, 0x10, 0xA9, 0x6E, 0x81, 0x89, 0xDB}
	if buf != want {
		t.Fatalf("EncodeConfig() = % X, want % X", buf, want)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	tests := []RadioConfig{
		sampleConfig(),
		{
			Channel:         0,
			Band:            false,
			TxPower:         -10,
			RxPower:         RxPowerReduced,
			AutoRetransmit:  true,
			RxAddressWidth:  1,
			TxAddressWidth:  1,
			RxPayloadWidth:  1,
			TxPayloadWidth:  1,
			RxAddress:       0,
			ClkOutFrequency: ClkOut4000000,
			ClkOutEnable:    true,
			XtalFrequencyHz: 4_000_000,
			CRCEnable:       false,
			CRCBits:         0,
		},
		{
			Channel:         511,
			Band:            true,
			TxPower:         6,
			RxPower:         RxPowerNormal,
			AutoRetransmit:  false,
			RxAddressWidth:  4,
			TxAddressWidth:  2,
			RxPayloadWidth:  32,
			TxPayloadWidth:  32,
			RxAddress:       0xDEADBEEF,
			ClkOutFrequency: ClkOut1000000,
			ClkOutEnable:    false,
			XtalFrequencyHz: 32_000_000,
			CRCEnable:       true,
			CRCBits:         8,
		},
	}

	for _, c := range tests {
		encoded, err := EncodeConfig(c)
		if err != nil {
			t.Fatalf("EncodeConfig(%+v) error = %v", c, err)
		}
		decoded := DecodeConfig(encoded)
		if decoded != c {
			t.Errorf("round trip mismatch: got %+v, want %+v", decoded, c)
		}

		reencoded, err := EncodeConfig(decoded)
		if err != nil {
			t.Fatalf("EncodeConfig(decoded) error = %v", err)
		}
		if reencoded != encoded {
			t.Errorf("encode(decode(buf)) != buf: got % X, want % X", reencoded, encoded)
		}
	}
}

func TestEncodeConfigRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *RadioConfig)
	}{
		{"channel too large", func(c *RadioConfig) { c.Channel = 0x200 }},
		{"rx address width zero", func(c *RadioConfig) { c.RxAddressWidth = 0 }},
		{"tx address width too large", func(c *RadioConfig) { c.TxAddressWidth = 5 }},
		{"rx payload width zero", func(c *RadioConfig) { c.RxPayloadWidth = 0 }},
		{"tx payload width too large", func(c *RadioConfig) { c.TxPayloadWidth = 33 }},
		{"xtal too low", func(c *RadioConfig) { c.XtalFrequencyHz = 2_000_000 }},
		{"xtal not a multiple of 4MHz", func(c *RadioConfig) { c.XtalFrequencyHz = 5_000_000 }},
		{"crc bits invalid", func(c *RadioConfig) { c.CRCBits = 12 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampleConfig()
			tt.mod(&c)
			if _, err := EncodeConfig(c); err != ErrInvalidField {
				t.Errorf("EncodeConfig() error = %v, want ErrInvalidField", err)
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	f := Frame{
		RxType:         DeviceTypeMainUnit,
		RxID:           0x1D,
		TxType:         DeviceTypeRemoteControl,
		TxID:           0x42,
		TTL:            250,
		Command:        CommandQueryDevice,
		ParameterCount: 0,
	}

	buf := EncodeFrame(f)
	if len(buf) != FrameSize {
		t.Fatalf("EncodeFrame() length = %d, want %d", len(buf), FrameSize)
	}

	decoded := DecodeFrame(buf)
	if decoded != f {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, f)
	}
}

func TestFrameRoundTripWithPayload(t *testing.T) {
	f := Frame{
		RxType:         DeviceTypeRemoteControl,
		RxID:           0x42,
		TxType:         DeviceTypeMainUnit,
		TxID:           0x1D,
		TTL:            250,
		Command:        CommandJoinOpen,
		ParameterCount: 4,
	}
	f.Payload[0] = 0xA5
	f.Payload[1] = 0x5A
	f.Payload[2] = 0x5A
	f.Payload[3] = 0xA5

	buf := EncodeFrame(f)
	decoded := DecodeFrame(buf)
	if decoded != f {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, f)
	}
}
