package robot

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
)

// Porter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// SerialLink is a robot link over a line-oriented serial port. Each line the
// firmware prints is one event payload; commands are written one per line.
type SerialLink[T Porter] struct {
	port         T
	subs         fanout
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// NewSerialLink wraps an open port.
func NewSerialLink[T Porter](port T) *SerialLink[T] {
	return &SerialLink[T]{
		port: port,
		subs: newFanout(),
	}
}

func (s *SerialLink[T]) Subscribe() (string, chan string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	return s.subs.add()
}

// Unsubscribe removes a subscriber from the link.
func (s *SerialLink[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subs.remove(id)
}

// SendCommand writes a newline-terminated command to the port.
func (s *SerialLink[T]) SendCommand(command string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	if !bytes.HasSuffix([]byte(command), []byte("\n")) {
		command += "\n"
	}
	n, err := s.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads lines from the port and fans them out to subscribers.
func (s *SerialLink[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// the blocking scan.Scan runs in its own goroutine so the outer loop can
	// observe context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			s.closingMu.Lock()
			if s.closing {
				s.closingMu.Unlock()
				return nil
			}
			s.closingMu.Unlock()

			if line == "" {
				continue
			}
			s.subscriberMu.Lock()
			s.subs.publish(line)
			s.subscriberMu.Unlock()
		}
	}
}

func (s *SerialLink[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	s.subs.closeAll()
	s.subscriberMu.Unlock()
	return s.port.Close()
}

func (s *SerialLink[T]) AttachAdminRoutes(mux *http.ServeMux) {
	attachAdminRoutes(mux, s)
}
