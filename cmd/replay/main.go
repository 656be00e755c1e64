// Command replay rebuilds an occupancy map offline, either from the
// readings listed in a mapping config or from a journalled session, and
// prints the log-odds table.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/banshee-data/gridmap/internal/config"
	"github.com/banshee-data/gridmap/internal/db"
	"github.com/banshee-data/gridmap/internal/mapper"
	"github.com/banshee-data/gridmap/internal/monitor"
	"github.com/banshee-data/gridmap/internal/occupancy"
)

type options struct {
	configPath string
	dbPath     string
	sessionID  string
	outDir     string
	list       bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Mapping config with readings (.json/.yaml); unset uses the built-in demo")
	fs.StringVar(&o.dbPath, "db", "", "Observation journal to replay from")
	fs.StringVar(&o.sessionID, "session", "", "Session ID to replay (requires -db)")
	fs.StringVar(&o.outDir, "out", "", "Directory for the probability heatmap and history plots")
	fs.BoolVar(&o.list, "list", false, "List journalled sessions and exit (requires -db)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if (o.sessionID != "" || o.list) && o.dbPath == "" {
		return o, fmt.Errorf("-session and -list require -db")
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := run(opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(opts options, out io.Writer) error {
	if opts.dbPath != "" {
		journal, err := db.NewDB(opts.dbPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer journal.Close()

		if opts.list {
			return listSessions(journal, out)
		}
		if opts.sessionID != "" {
			session, err := replaySession(journal, opts.sessionID)
			if err != nil {
				return err
			}
			return report(session, opts.outDir, out)
		}
	}

	cfg := config.DefaultMappingConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadMappingConfig(opts.configPath); err != nil {
			return err
		}
	}
	session, err := mapper.ReplayReadings(cfg)
	if err != nil {
		return err
	}
	return report(session, opts.outDir, out)
}

func replaySession(journal *db.DB, id string) (*occupancy.Session, error) {
	rec, err := journal.Session(id)
	if err != nil {
		return nil, err
	}
	observations, err := journal.Observations(id)
	if err != nil {
		return nil, err
	}
	return mapper.Replay(rec.MappingConfig(), observations)
}

func listSessions(journal *db.DB, out io.Writer) error {
	sessions, err := journal.Sessions()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tGRID\tSTEPS\tOBSERVED\tCREATED")
	for _, s := range sessions {
		obs, err := journal.Observations(s.SessionID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%d\t%d\t%s\n", s.SessionID, s.GridSize, s.GridSize, len(s.Plan), len(obs), s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func report(session *occupancy.Session, outDir string, out io.Writer) error {
	if err := session.ExportTable(out); err != nil {
		return err
	}
	if outDir == "" {
		return nil
	}

	gp := monitor.NewGridPlotter(outDir)
	title := fmt.Sprintf("Occupancy probability (step %d)", session.Latest())
	path, err := gp.SaveProbability("probability.png", session.ProbabilityMap(), session.Grid.Size, title)
	if err != nil {
		return err
	}
	n, err := gp.GenerateHistoryPlots(session.History().Table(), session.Grid.Size)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s and %d history plots to %s\n", path, n, outDir)
	return nil
}
