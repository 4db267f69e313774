package proxy

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxy(t *testing.T) {
	t.Parallel()

	dir, err := os.MkdirTemp("", "knotls-proxy")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	socket := filepath.Join(dir, "test.sock")
	listener, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	conns := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			conns <- conn
		}
	}()

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	me := &Handler{
		socket: socket,
		stdin:  stdinR,
		stdout: stdoutW,
		stderr: io.Discard,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proxyDone := make(chan error, 1)
	go func() { proxyDone <- me.Run(ctx) }()

	var serverConn net.Conn
	select {
	case serverConn = <-conns:
	case <-ctx.Done():
		t.Fatal("timeout waiting for connection")
	}
	defer serverConn.Close()

	// editor -> server
	request := "Content-Length: 2\r\n\r\n{}"
	go func() { _, _ = io.WriteString(stdinW, request) }()

	buf := make([]byte, len(request))
	_, err = io.ReadFull(serverConn, buf)
	require.NoError(t, err)
	assert.Equal(t, request, string(buf))

	// server -> editor
	response := "Content-Length: 4\r\n\r\nnull"
	_, err = serverConn.Write([]byte(response))
	require.NoError(t, err)

	out := make([]byte, len(response))
	_, err = io.ReadFull(stdoutR, out)
	require.NoError(t, err)
	assert.Equal(t, response, string(out))

	// closing stdin ends the proxy
	require.NoError(t, stdinW.Close())

	select {
	case err := <-proxyDone:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("timeout waiting for proxy to finish")
	}
}

func TestProxyNoServer(t *testing.T) {
	t.Parallel()

	me := &Handler{
		socket: filepath.Join(t.TempDir(), "missing.sock"),
		stdin:  &bytes.Buffer{},
		stdout: io.Discard,
		stderr: io.Discard,
	}

	err := me.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to")
}
