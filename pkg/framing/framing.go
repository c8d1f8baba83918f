// Package framing implements the serial link's message framing: magic
// bytes, a 16-bit little-endian length, the payload, and a
// CRC-16/XMODEM trailer. It is the synchronous read/write discipline
// that preserves message boundaries on a blocking byte stream,
// grounded on the original Proton serial transport's header/CRC
// handling.
package framing

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/clearpath-proton/proton/internal/crc"
	"github.com/clearpath-proton/proton/pkg/protonerr"
)

const (
	magic1 = 0x50
	magic2 = 0x52

	// HeaderSize is the magic-bytes + length-prefix overhead.
	HeaderSize = 4
	// CRCSize is the trailing checksum overhead.
	CRCSize = 2
	// Overhead is the total per-frame overhead: HeaderSize + CRCSize.
	Overhead = HeaderSize + CRCSize
	// MaxPayload is the largest payload a 16-bit length prefix can
	// describe, and the hard cap on a single Proton message.
	MaxPayload = 65535
)

// Encode builds a complete frame (header || payload || CRC) for the
// given payload. Fails with INSUFFICIENT_BUFFER if payload exceeds
// MaxPayload.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, protonerr.New(protonerr.InsufficientBuffer,
			fmt.Sprintf("payload length %d exceeds max %d", len(payload), MaxPayload))
	}
	out := make([]byte, 0, Overhead+len(payload))
	out = append(out, magic1, magic2)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	out = append(out, lenBuf[:]...)
	out = append(out, payload...)
	sum := crc.Checksum(payload)
	var crcBuf [2]byte
	binary.LittleEndian.PutUint16(crcBuf[:], sum)
	out = append(out, crcBuf[:]...)
	return out, nil
}

// WriteFrame writes a complete frame to w, building it from payload.
// A short underlying write is reported as WRITE_ERROR.
func WriteFrame(w io.Writer, payload []byte) error {
	frame, err := Encode(payload)
	if err != nil {
		return err
	}
	n, err := w.Write(frame)
	if err != nil {
		return protonerr.New(protonerr.WriteError, err.Error())
	}
	if n != len(frame) {
		return protonerr.New(protonerr.WriteError, fmt.Sprintf("short write: wrote %d of %d bytes", n, len(frame)))
	}
	return nil
}

// ReadFrame reads exactly one framed payload from r: 4 header bytes,
// the declared payload, then 2 CRC bytes, failing fast at each stage
// per the synchronous read discipline. It never returns a partial
// payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [HeaderSize]byte
	if err := readExact(r, header[:]); err != nil {
		return nil, err
	}
	if header[0] != magic1 || header[1] != magic2 {
		return nil, protonerr.New(protonerr.InvalidHeader,
			fmt.Sprintf("bad magic bytes 0x%02x 0x%02x", header[0], header[1]))
	}
	length := binary.LittleEndian.Uint16(header[2:4])
	if length == 0 {
		return nil, protonerr.New(protonerr.InvalidHeader, "zero-length payload")
	}

	payload := make([]byte, length)
	if err := readExact(r, payload); err != nil {
		return nil, err
	}

	var crcBytes [CRCSize]byte
	if err := readExact(r, crcBytes[:]); err != nil {
		return nil, err
	}
	want := binary.LittleEndian.Uint16(crcBytes[:])
	got := crc.Checksum(payload)
	if want != got {
		return nil, protonerr.New(protonerr.CRC16Error,
			fmt.Sprintf("crc mismatch: frame says 0x%04x, computed 0x%04x", want, got))
	}
	return payload, nil
}

func readExact(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return protonerr.New(protonerr.ReadError, err.Error())
	}
	return nil
}
