// Package udp4 implements the datagram Transport: a bound local
// receive socket paired with a send socket connected to the peer.
// Datagrams carry one protobuf-encoded bundle each; no framing is
// applied, since each write is already self-delimiting.
package udp4

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/transport"
)

// Config identifies the local bind address and the remote peer
// address for one UDP4 transport instance.
type Config struct {
	LocalIP    string
	LocalPort  int
	RemoteIP   string
	RemotePort int
}

// Transport is a UDP4 Transport: separate receive and send sockets,
// matching the configuration's read/write asymmetry (bind vs. connect).
type Transport struct {
	transport.StateHolder

	cfg Config
	rx  *net.UDPConn
	tx  *net.UDPConn
}

func init() {
	transport.Register("udp4", func(config any) (transport.Transport, error) {
		cfg, ok := config.(Config)
		if !ok {
			return nil, fmt.Errorf("udp4: expected Config, got %T", config)
		}
		return New(cfg), nil
	})
}

// New constructs a UDP4 transport in the DISCONNECTED state.
func New(cfg Config) *Transport {
	return &Transport{cfg: cfg}
}

// Connect binds the local receive socket and connects the send socket
// to the remote peer.
func (t *Transport) Connect(ctx context.Context) error {
	localAddr := &net.UDPAddr{IP: net.ParseIP(t.cfg.LocalIP), Port: t.cfg.LocalPort}
	rx, err := net.ListenUDP("udp4", localAddr)
	if err != nil {
		t.SetState(transport.Error)
		return protonerr.New(protonerr.ConnectError, err.Error())
	}

	remoteAddr := &net.UDPAddr{IP: net.ParseIP(t.cfg.RemoteIP), Port: t.cfg.RemotePort}
	tx, err := net.DialUDP("udp4", nil, remoteAddr)
	if err != nil {
		rx.Close()
		t.SetState(transport.Error)
		return protonerr.New(protonerr.ConnectError, err.Error())
	}

	t.rx, t.tx = rx, tx
	t.SetState(transport.Connected)
	return nil
}

// Disconnect closes both sockets.
func (t *Transport) Disconnect(ctx context.Context) error {
	var firstErr error
	if t.rx != nil {
		if err := t.rx.Close(); err != nil {
			firstErr = err
		}
		t.rx = nil
	}
	if t.tx != nil {
		if err := t.tx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.tx = nil
	}
	t.SetState(transport.Disconnected)
	if firstErr != nil {
		return protonerr.New(protonerr.DisconnectError, firstErr.Error())
	}
	return nil
}

// pollTimeout bounds how long Read waits for the next datagram before
// returning a no-op so spin keeps cycling instead of blocking forever
// on a quiet peer, matching the spec's "non-blocking datagrams return
// promptly" expectation for this transport class.
const pollTimeout = 500 * time.Millisecond

// Read waits up to pollTimeout for the next datagram and copies it
// into buf, returning the number of bytes read. A poll that times out
// with no datagram available returns (0, nil), a no-op tick rather
// than an error. One call returns one complete datagram.
func (t *Transport) Read(ctx context.Context, buf []byte) (int, error) {
	if t.rx == nil {
		return 0, protonerr.New(protonerr.ReadError, "udp4: not connected")
	}
	if err := t.rx.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
		return 0, protonerr.New(protonerr.ReadError, err.Error())
	}
	n, err := t.rx.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil
		}
		t.SetState(transport.Error)
		return 0, protonerr.New(protonerr.ReadError, err.Error())
	}
	return n, nil
}

// Write sends buf as one datagram to the connected peer.
func (t *Transport) Write(ctx context.Context, buf []byte) (int, error) {
	if t.tx == nil {
		return 0, protonerr.New(protonerr.WriteError, "udp4: not connected")
	}
	n, err := t.tx.Write(buf)
	if err != nil {
		t.SetState(transport.Error)
		return 0, protonerr.New(protonerr.WriteError, err.Error())
	}
	if n != len(buf) {
		t.SetState(transport.Error)
		return n, protonerr.New(protonerr.WriteError, fmt.Sprintf("short write: wrote %d of %d bytes", n, len(buf)))
	}
	return n, nil
}
