package robot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPort implements Porter. Reads return the canned data then io.EOF.
type testPort struct {
	mu          sync.Mutex
	readData    []byte
	readIndex   int
	writtenData bytes.Buffer
	writeErr    error
	shortWrite  bool
	closed      bool
}

func newTestPort(data string) *testPort {
	return &testPort{readData: []byte(data)}
}

func (p *testPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.readIndex >= len(p.readData) {
		return 0, io.EOF
	}
	n := copy(buf, p.readData[p.readIndex:])
	p.readIndex += n
	return n, nil
}

func (p *testPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.shortWrite {
		return len(data) - 1, nil
	}
	return p.writtenData.Write(data)
}

func (p *testPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *testPort) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writtenData.String()
}

func TestSerialLink_SendCommand(t *testing.T) {
	port := newTestPort("")
	link := NewSerialLink(port)

	require.NoError(t, link.SendCommand(MoveForward))
	require.NoError(t, link.SendCommand("STOP\n"))
	assert.Equal(t, "MOVE_FORWARD\nSTOP\n", port.written())
}

func TestSerialLink_SendCommandErrors(t *testing.T) {
	port := newTestPort("")
	link := NewSerialLink(port)

	boom := errors.New("boom")
	port.writeErr = boom
	assert.ErrorIs(t, link.SendCommand(Stop), boom)

	port.writeErr = nil
	port.shortWrite = true
	assert.ErrorIs(t, link.SendCommand(Stop), ErrWriteFailed)
}

func TestSerialLink_MonitorPublishesLines(t *testing.T) {
	port := newTestPort("{\"event\":\"distance\",\"value\":512}\n\n{\"event\":\"collision\"}\n")
	link := NewSerialLink(port)
	_, ch := link.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, link.Monitor(ctx))

	var got []string
	for len(ch) > 0 {
		got = append(got, <-ch)
	}
	assert.Equal(t, []string{`{"event":"distance","value":512}`, `{"event":"collision"}`}, got)
}

func TestSerialLink_CloseClosesSubscribers(t *testing.T) {
	port := newTestPort("")
	link := NewSerialLink(port)
	_, ch := link.Subscribe()

	require.NoError(t, link.Close())
	_, ok := <-ch
	assert.False(t, ok)
	assert.True(t, port.closed)
}

func TestSerialLink_Unsubscribe(t *testing.T) {
	link := NewSerialLink(newTestPort(""))
	id, ch := link.Subscribe()
	link.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok)

	// Removing an unknown subscriber is a no-op.
	link.Unsubscribe("missing")
}
