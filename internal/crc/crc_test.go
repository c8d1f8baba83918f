package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Standard check value for CRC-16/CCITT-FALSE (poly 0x1021, init
// 0xFFFF, no reflection, no final XOR).
func TestChecksumCheckString(t *testing.T) {
	assert.EqualValues(t, 0x29B1, Checksum([]byte("123456789")))
}

func TestChecksumFrameVector(t *testing.T) {
	// DE AD BE EF -> CRC16 0x4097, little-endian on the wire as 97 40.
	assert.EqualValues(t, 0x4097, Checksum([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
}

func TestChecksumEmpty(t *testing.T) {
	assert.EqualValues(t, uint16(Initial), Checksum(nil))
}

func TestSingleAccumulates(t *testing.T) {
	var crc CRC16 = Initial
	for _, b := range []byte("123456789") {
		crc.Single(b)
	}
	assert.EqualValues(t, 0x29B1, crc)
}
