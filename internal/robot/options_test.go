package robot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortOptions_SerialMode(t *testing.T) {
	tests := []struct {
		name    string
		in      PortOptions
		want    serial.Mode
		wantErr bool
	}{
		{name: "defaults", in: PortOptions{}, want: serial.Mode{BaudRate: 115200, DataBits: 8, StopBits: serial.OneStopBit, Parity: serial.NoParity}},
		{name: "even parity", in: PortOptions{BaudRate: 9600, Parity: "even"}, want: serial.Mode{BaudRate: 9600, DataBits: 8, StopBits: serial.OneStopBit, Parity: serial.EvenParity}},
		{name: "odd two stop bits", in: PortOptions{StopBits: 2, Parity: " o "}, want: serial.Mode{BaudRate: 115200, DataBits: 8, StopBits: serial.TwoStopBits, Parity: serial.OddParity}},
		{name: "seven data bits", in: PortOptions{DataBits: 7, Parity: "E"}, want: serial.Mode{BaudRate: 115200, DataBits: 7, StopBits: serial.OneStopBit, Parity: serial.EvenParity}},
		{name: "bad data bits", in: PortOptions{DataBits: 9}, wantErr: true},
		{name: "bad stop bits", in: PortOptions{StopBits: 3}, wantErr: true},
		{name: "bad parity", in: PortOptions{Parity: "mark"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.SerialMode()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}
