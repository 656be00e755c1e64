// Command teleop drives the robot from the keyboard through a running
// gridmap server. Each line is a key binding (s/w/d/a/c) or a command name;
// motion commands are followed by STOP after -hold, like releasing a key.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/banshee-data/gridmap/internal/httputil"
	"github.com/banshee-data/gridmap/internal/robot"
)

var (
	server = flag.String("server", "http://localhost:8005", "gridmap server URL")
	hold   = flag.Duration("hold", 300*time.Millisecond, "How long a motion command runs before STOP")
)

type client struct {
	base  string
	http  httputil.HTTPClient
	sleep func(time.Duration)
}

func newClient(base string, hc httputil.HTTPClient) *client {
	return &client{base: strings.TrimRight(base, "/"), http: hc, sleep: time.Sleep}
}

func (c *client) post(path string, body any) ([]byte, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) get(path string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return data, nil
}

// send issues cmd and, for motion commands, a STOP after holdFor.
func (c *client) send(cmd string, holdFor time.Duration) error {
	if _, err := c.post("/api/command", map[string]string{"command": cmd}); err != nil {
		return err
	}
	if cmd == robot.Stop || holdFor <= 0 {
		return nil
	}
	c.sleep(holdFor)
	_, err := c.post("/api/command", map[string]string{"command": robot.Stop})
	return err
}

var errQuit = errors.New("quit")

// handleLine runs one console line and returns text to print.
func (c *client) handleLine(line string, holdFor time.Duration) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return "", errQuit
	case "help", "?":
		return "keys: s=forward w=backward d=left a=right c=stop\n" +
			"other: status, reset, observe <mm>, quit", nil
	case "status":
		data, err := c.get("/api/session")
		if err != nil {
			return "", err
		}
		var snap struct {
			SessionID  string `json:"session_id"`
			NextStep   int    `json:"next_step"`
			PlanLength int    `json:"plan_length"`
			Complete   bool   `json:"complete"`
		}
		if err := json.Unmarshal(data, &snap); err != nil {
			return "", err
		}
		return fmt.Sprintf("session %s: step %d/%d complete=%t", snap.SessionID, snap.NextStep, snap.PlanLength, snap.Complete), nil
	case "reset":
		data, err := c.post("/api/reset", nil)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	case "observe":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: observe <distance_mm>")
		}
		mm, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return "", fmt.Errorf("invalid distance %q", fields[1])
		}
		if _, err := c.post("/api/observe", map[string]float64{"distance_mm": mm}); err != nil {
			return "", err
		}
		return fmt.Sprintf("applied %.0fmm", mm), nil
	}

	cmd, err := robot.ParseCommand(fields[0])
	if err != nil {
		return "", err
	}
	if err := c.send(cmd, holdFor); err != nil {
		return "", err
	}
	return cmd, nil
}

func main() {
	flag.Parse()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "teleop> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		log.Fatalf("failed to start console: %v", err)
	}
	defer rl.Close()

	c := newClient(*server, httputil.NewStandardClient(5*time.Second))
	fmt.Fprintf(rl.Stdout(), "connected to %s, type help for keys\n", *server)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			}
			continue
		}
		if err != nil {
			break
		}
		msg, err := c.handleLine(line, *hold)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			continue
		}
		if msg != "" {
			fmt.Fprintln(rl.Stdout(), msg)
		}
	}
	// Leave the robot stopped.
	if err := c.send(robot.Stop, 0); err != nil {
		log.Printf("failed to stop robot: %v", err)
	}
}
