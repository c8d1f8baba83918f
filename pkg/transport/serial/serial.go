// Package serial implements the byte-stream Transport over a tty,
// applying the framing codec (pkg/framing) on every read and write so
// message boundaries survive the underlying stream.
package serial

import (
	"context"
	"fmt"
	"io"

	goserial "github.com/goburrow/serial"

	"github.com/clearpath-proton/proton/pkg/framing"
	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/transport"
)

// Config identifies the tty device and line discipline for one serial
// transport instance. Proton links default to raw 8N1 with no flow
// control at a high fixed baud (921600 or 1152000).
type Config struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
}

func (c Config) toGoserial() goserial.Config {
	return goserial.Config{
		Address:  c.Device,
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   c.Parity,
		StopBits: c.StopBits,
	}
}

// Transport is a framed serial Transport.
type Transport struct {
	transport.StateHolder

	cfg  Config
	port io.ReadWriteCloser
}

func init() {
	transport.Register("serial", func(config any) (transport.Transport, error) {
		cfg, ok := config.(Config)
		if !ok {
			return nil, fmt.Errorf("serial: expected Config, got %T", config)
		}
		return New(cfg), nil
	})
}

// DefaultConfig fills in the raw 8N1, no-flow-control line discipline
// for the given device and baud rate.
func DefaultConfig(device string, baud int) Config {
	return Config{Device: device, BaudRate: baud, DataBits: 8, Parity: "N", StopBits: 1}
}

// New constructs a serial transport in the DISCONNECTED state.
func New(cfg Config) *Transport {
	return &Transport{cfg: cfg}
}

// Connect opens the tty at the configured baud rate and line
// discipline.
func (t *Transport) Connect(ctx context.Context) error {
	cfg := t.cfg.toGoserial()
	port, err := goserial.Open(&cfg)
	if err != nil {
		t.SetState(transport.Error)
		return protonerr.New(protonerr.ConnectError, err.Error())
	}
	t.port = port
	t.SetState(transport.Connected)
	return nil
}

// Disconnect closes the tty.
func (t *Transport) Disconnect(ctx context.Context) error {
	if t.port == nil {
		t.SetState(transport.Disconnected)
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.SetState(transport.Disconnected)
	if err != nil {
		return protonerr.New(protonerr.DisconnectError, err.Error())
	}
	return nil
}

// Read blocks until one complete, CRC-validated frame payload is
// available and copies it into buf. Fails INSUFFICIENT_BUFFER if the
// frame payload does not fit in buf.
func (t *Transport) Read(ctx context.Context, buf []byte) (int, error) {
	if t.port == nil {
		return 0, protonerr.New(protonerr.ReadError, "serial: not connected")
	}
	payload, err := framing.ReadFrame(t.port)
	if err != nil {
		if kindOf(err) != protonerr.InvalidHeader && kindOf(err) != protonerr.CRC16Error {
			t.SetState(transport.Error)
		}
		return 0, err
	}
	if len(payload) > len(buf) {
		return 0, protonerr.New(protonerr.InsufficientBuffer,
			fmt.Sprintf("frame payload %d exceeds buffer %d", len(payload), len(buf)))
	}
	return copy(buf, payload), nil
}

// Write frames buf and writes header || payload || CRC to the tty.
func (t *Transport) Write(ctx context.Context, buf []byte) (int, error) {
	if t.port == nil {
		return 0, protonerr.New(protonerr.WriteError, "serial: not connected")
	}
	if err := framing.WriteFrame(t.port, buf); err != nil {
		t.SetState(transport.Error)
		return 0, err
	}
	return len(buf), nil
}

func kindOf(err error) protonerr.Kind {
	pe, ok := err.(*protonerr.Error)
	if !ok {
		return -1
	}
	return pe.Kind
}
