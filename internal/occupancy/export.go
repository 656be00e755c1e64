package occupancy

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// ExportTable writes the full log-odds history as an aligned text table:
// one row per cell (numbered from 1) and one column
// per history entry including the initial prior.
func (s *Session) ExportTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	if _, err := fmt.Fprint(tw, "Cell\t"); err != nil {
		return err
	}
	cols := s.history.Cols()
	for t := 1; t <= cols; t++ {
		if _, err := fmt.Fprintf(tw, "%d\t", t); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(tw); err != nil {
		return err
	}

	for i := 0; i < s.history.Rows(); i++ {
		if _, err := fmt.Fprintf(tw, "%d\t", i+1); err != nil {
			return err
		}
		for t := 0; t < cols; t++ {
			v := strconv.FormatFloat(s.history.At(i, t), 'f', 4, 64)
			if _, err := fmt.Fprintf(tw, "%s\t", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(tw); err != nil {
			return err
		}
	}
	return tw.Flush()
}
