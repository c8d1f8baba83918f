package udp4

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/clearpath-proton/proton/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUDP4RoundTrip(t *testing.T) {
	ctx := context.Background()

	a := New(Config{LocalIP: "127.0.0.1", LocalPort: 0})
	require.NoError(t, a.Connect(ctx))
	defer a.Disconnect(ctx)

	aPort := a.rx.LocalAddr().(*net.UDPAddr).Port

	b := New(Config{LocalIP: "127.0.0.1", LocalPort: 0, RemoteIP: "127.0.0.1", RemotePort: aPort})
	require.NoError(t, b.Connect(ctx))
	defer b.Disconnect(ctx)

	bPort := b.rx.LocalAddr().(*net.UDPAddr).Port
	a.cfg.RemoteIP, a.cfg.RemotePort = "127.0.0.1", bPort
	tx, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: bPort})
	require.NoError(t, err)
	a.tx = tx

	n, err := a.Write(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 64)
	b.rx.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err = b.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestUDP4StateTransitions(t *testing.T) {
	ctx := context.Background()
	tr := New(Config{LocalIP: "127.0.0.1", LocalPort: 0, RemoteIP: "127.0.0.1", RemotePort: 1})
	assert.Equal(t, transport.Disconnected, tr.State())
	require.NoError(t, tr.Connect(ctx))
	assert.Equal(t, transport.Connected, tr.State())
	require.NoError(t, tr.Disconnect(ctx))
	assert.Equal(t, transport.Disconnected, tr.State())
}

func TestUDP4WriteWithoutConnectFails(t *testing.T) {
	tr := New(Config{})
	_, err := tr.Write(context.Background(), []byte("x"))
	assert.Error(t, err)
}

func TestUDP4ReadWithoutConnectFails(t *testing.T) {
	tr := New(Config{})
	_, err := tr.Read(context.Background(), make([]byte, 4))
	assert.Error(t, err)
}
