package robot

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// PortOptions describes the serial connection parameters used when opening
// the robot's USB serial port.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// DefaultBaudRate is the ESP32 firmware console speed.
const DefaultBaudRate = 115200

var stopBitModes = map[int]serial.StopBits{
	0: serial.OneStopBit,
	1: serial.OneStopBit,
	2: serial.TwoStopBits,
}

var parityModes = map[string]serial.Parity{
	"":     serial.NoParity,
	"N":    serial.NoParity,
	"NONE": serial.NoParity,
	"E":    serial.EvenParity,
	"EVEN": serial.EvenParity,
	"O":    serial.OddParity,
	"ODD":  serial.OddParity,
}

// SerialMode validates the options and builds the serial.Mode used to open
// the port. Unset fields give 115200 8N1.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	mode := &serial.Mode{BaudRate: o.BaudRate, DataBits: o.DataBits}
	if mode.BaudRate <= 0 {
		mode.BaudRate = DefaultBaudRate
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}
	if mode.DataBits < 5 || mode.DataBits > 8 {
		return nil, fmt.Errorf("invalid data bits %d: must be between 5 and 8", o.DataBits)
	}

	stop, ok := stopBitModes[o.StopBits]
	if !ok {
		return nil, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", o.StopBits)
	}
	mode.StopBits = stop

	parity, ok := parityModes[strings.ToUpper(strings.TrimSpace(o.Parity))]
	if !ok {
		return nil, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}
	mode.Parity = parity

	return mode, nil
}

// OpenSerialLink opens the serial port at path and wraps it in a link.
func OpenSerialLink(path string, opts PortOptions) (*SerialLink[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return NewSerialLink[serial.Port](port), nil
}
