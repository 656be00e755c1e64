package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/banshee-data/gridmap/internal/config"
	"github.com/banshee-data/gridmap/internal/db"
	"github.com/banshee-data/gridmap/internal/mapper"
	"github.com/banshee-data/gridmap/internal/monitor"
	"github.com/banshee-data/gridmap/internal/monitoring"
	"github.com/banshee-data/gridmap/internal/robot"
	"github.com/banshee-data/gridmap/internal/timeutil"
	"github.com/banshee-data/gridmap/internal/version"
)

var (
	configFile  = flag.String("config", "", "Mapping config (.json/.yaml); defaults to "+config.DefaultConfigPath+" when present")
	listen      = flag.String("listen", ":8005", "Listen address")
	dbPath      = flag.String("db", "gridmap.db", "Observation journal (sqlite); empty disables journaling")
	serialPort  = flag.String("serial", "", "Serial port of the robot; the robot dials /ws/move when unset")
	baudRate    = flag.Int("baud", 115200, "Serial baud rate")
	fixtures    = flag.String("fixtures", "", "Replay robot payloads from this file instead of a real robot")
	fixtureRate = flag.Duration("fixture-interval", 500*time.Millisecond, "Delay between replayed fixture payloads")
	verbose     = flag.Bool("verbose", false, "Log every event")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// envOverrides maps flags to environment variables read from the process
// environment or a .env file. Explicit flags win.
var envOverrides = map[string]string{
	"config":  "GRIDMAP_CONFIG",
	"listen":  "GRIDMAP_LISTEN",
	"db":      "GRIDMAP_DB",
	"serial":  "GRIDMAP_SERIAL",
	"baud":    "GRIDMAP_BAUD",
	"verbose": "GRIDMAP_VERBOSE",
}

func applyEnv(fs *flag.FlagSet) error {
	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	for name, env := range envOverrides {
		v, ok := os.LookupEnv(env)
		if !ok || explicit[name] {
			continue
		}
		if err := fs.Set(name, v); err != nil {
			return fmt.Errorf("%s=%q: %w", env, v, err)
		}
	}
	return nil
}

func loadConfig(path string) (*config.MappingConfig, error) {
	if path != "" {
		return config.LoadMappingConfig(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadMappingConfig(config.DefaultConfigPath)
	}
	return config.DefaultMappingConfig(), nil
}

func main() {
	_ = godotenv.Load(".env")
	flag.Parse()
	if err := applyEnv(flag.CommandLine); err != nil {
		log.Fatalf("invalid environment: %v", err)
	}

	if *showVersion {
		fmt.Println("gridmap", version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	monitoring.SetVerbose(*verbose)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var journal *db.DB
	if *dbPath != "" {
		journal, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer journal.Close()
	}

	var j mapper.Journal
	if journal != nil {
		j = journal
	}
	m, err := mapper.New(cfg, j, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("failed to start mapping session: %v", err)
	}

	var (
		link    robot.Link
		wsLink  *robot.WebSocketLink
		robotWS http.Handler
	)
	switch {
	case *fixtures != "":
		lines, err := robot.LoadFixture(*fixtures)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("replaying %d fixture payloads from %s", len(lines), *fixtures)
		link = robot.NewFixtureLink(lines, *fixtureRate)
	case *serialPort != "":
		serialLink, err := robot.OpenSerialLink(*serialPort, robot.PortOptions{BaudRate: *baudRate})
		if err != nil {
			log.Fatalf("failed to open robot port: %v", err)
		}
		log.Printf("connected to robot on %s at %d baud", *serialPort, *baudRate)
		link = serialLink
	default:
		wsLink = robot.NewWebSocketLink()
		robotWS = http.HandlerFunc(wsLink.Handle)
		link = wsLink
	}
	defer link.Close()

	// Create a wait group for the HTTP server, link monitor and mapper routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := link.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor robot link: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.Run(ctx, link); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("mapper stopped: %v", err)
		}
		log.Print("mapper routine terminated")
	}()

	// A websocket robot also receives the viewer stream.
	if wsLink != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, updates := m.Subscribe()
			defer m.Unsubscribe(id)
			for {
				select {
				case u, ok := <-updates:
					if !ok {
						return
					}
					if err := wsLink.WriteJSON(u); err != nil && !errors.Is(err, robot.ErrNotConnected) {
						log.Printf("failed to forward %s to robot: %v", u.Event, err)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		server := monitor.NewWebServer(monitor.WebServerConfig{
			Address:      *listen,
			Mapper:       m,
			Link:         link,
			RobotHandler: robotWS,
			DB:           journal,
		})
		if err := server.Start(ctx); err != nil {
			log.Printf("HTTP server failed: %v", err)
			stop()
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
