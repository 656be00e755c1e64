package robot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/gridmap/internal/monitoring"
)

// fixturePort replays canned robot output and logs commands written to it.
// Reads come from a pipe fed by a ticker goroutine.
type fixturePort struct {
	r *io.PipeReader
	w *io.PipeWriter

	done chan struct{}
	once sync.Once
}

func (p *fixturePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *fixturePort) Write(b []byte) (int, error) {
	monitoring.Logf("[fixture] robot command %q", strings.TrimSpace(string(b)))
	return len(b), nil
}

func (p *fixturePort) Close() error {
	p.once.Do(func() { close(p.done) })
	p.w.Close()
	return p.r.Close()
}

// NewFixtureLink returns a serial link that emits lines one every interval,
// then goes quiet until closed. It stands in for the robot in dev mode.
func NewFixtureLink(lines []string, interval time.Duration) *SerialLink[*fixturePort] {
	r, w := io.Pipe()
	port := &fixturePort{r: r, w: w, done: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for _, line := range lines {
			select {
			case <-port.done:
				return
			case <-ticker.C:
			}
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return
			}
		}
	}()

	return NewSerialLink(port)
}

// LoadFixture reads one payload per line from path, skipping blank lines
// and lines starting with '#'.
func LoadFixture(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures file: %w", err)
	}
	defer f.Close()

	var lines []string
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
