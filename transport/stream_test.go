package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTransportCallRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	d := NewDispatcher(func() bool { return true })
	d.Register(OpGetInitInfo, false, func(ctx context.Context, data []byte) ([]byte, error) {
		return []byte("init-reply"), nil
	})

	server := NewStreamTransport(serverConn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = server.Serve(ctx, d) }()

	client := NewStreamTransport(clientConn)
	reply, err := client.Call(context.Background(), OpGetInitInfo, []byte("args"))
	require.NoError(t, err)
	assert.Equal(t, "init-reply", string(reply))
}

func TestStreamTransportCallPropagatesLargePayload(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	payload := make([]byte, 200_000)
	for i := range payload {
		payload[i] = byte(i)
	}

	d := NewDispatcher(func() bool { return true })
	d.Register(OpRequestBuffer, false, func(ctx context.Context, data []byte) ([]byte, error) {
		echoed := append([]byte(nil), data...)
		return echoed, nil
	})

	server := NewStreamTransport(serverConn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = server.Serve(ctx, d) }()

	client := NewStreamTransport(clientConn)
	done := make(chan struct{})
	var reply []byte
	var callErr error
	go func() {
		reply, callErr = client.Call(context.Background(), OpRequestBuffer, payload)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for large-payload round trip")
	}

	require.NoError(t, callErr)
	assert.Equal(t, payload, reply)
}
