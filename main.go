// main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/petervdpas/callbridge/internal/bridge"
	"github.com/petervdpas/callbridge/internal/callapp"
	"github.com/petervdpas/callbridge/internal/config"
	"github.com/petervdpas/callbridge/internal/journal"
	"github.com/petervdpas/callbridge/internal/media"
	"github.com/petervdpas/callbridge/internal/renderer"
	"github.com/petervdpas/callbridge/internal/util"
)

var (
	showHelp = flag.Bool("h", false, "Show help")
	version  = flag.Bool("version", false, "Show version")

	// Demo call parameters. When -ws is set, a startCall command is
	// submitted immediately — before the document finishes loading — to
	// exercise the queue/readiness path end to end.
	callWS    = flag.String("ws", "", "Signaling endpoint URL (wss://...) for a demo call")
	callToken = flag.String("token", "", "Access token for the demo call")
	callRoom  = flag.String("room", "demo", "Room name for the demo call")
	callVideo = flag.Bool("video", true, "Start the demo call with video enabled")
)

// appVersion is set at build time via -ldflags "-X main.appVersion=x.y.z"
var appVersion = "dev"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("callbridge v%s\n", appVersion)
		return
	}

	if *showHelp {
		showUsage()
		return
	}

	args := flag.Args()

	// No arguments - run host in the current directory
	if len(args) == 0 {
		runHost(".")
		return
	}

	switch args[0] {
	case "run":
		dir := "."
		if len(args) > 1 {
			dir = args[1]
		}
		runHost(dir)

	case "init":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: init command requires directory path")
			fmt.Fprintln(os.Stderr, "Usage: callbridge init <host-directory>")
			os.Exit(1)
		}
		initHostDir(args[1])

	case "history":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: history command requires directory path")
			fmt.Fprintln(os.Stderr, "Usage: callbridge history <host-directory>")
			os.Exit(1)
		}
		showHistory(args[1])

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", args[0])
		fmt.Fprintln(os.Stderr)
		showUsage()
		os.Exit(1)
	}
}

func runHost(dirArg string) {
	absDir, err := filepath.Abs(dirArg)
	if err != nil {
		log.Fatalf("Invalid host directory: %v", err)
	}

	cfgPath := filepath.Join(absDir, "bridge.json")
	cfg, created, err := config.Ensure(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if created {
		log.Printf("HOST: created default config at %s", cfgPath)
	}

	appPath := util.ResolvePath(absDir, cfg.Renderer.AppScript)
	if err := ensureAppScript(appPath); err != nil {
		log.Fatalf("Failed to write app script: %v", err)
	}
	if cfg.Renderer.DevServerURL != "" {
		log.Printf("HOST: dev server configured at %s", cfg.Renderer.DevServerURL)
	}

	mediaOpts := media.Options{
		DialTimeout:  time.Duration(cfg.Media.DialTimeoutSec) * time.Second,
		PingInterval: time.Duration(cfg.Media.PingIntervalSec) * time.Second,
	}

	// Renderer-side emissions route through the bridge singleton once it
	// exists; the app is created first, so it resolves the bridge lazily.
	app := callapp.New(func(e bridge.Emission) {
		if b := bridge.Default(); b != nil {
			b.Emit(e)
		}
	}, mediaOpts)

	b, err := bridge.Open(func() (bridge.Renderer, error) {
		return renderer.New(renderer.Options{
			AppScript: appPath,
			Natives:   app.Natives(),
			DevReload: cfg.Renderer.DevReload,
		})
	})
	if err != nil {
		log.Fatalf("Bridge bring-up failed: %v", err)
	}
	rend := b.Document().(*renderer.Renderer)
	rend.Bind(b)

	var jdb *journal.DB
	if cfg.Journal.Enabled {
		jdb, err = journal.Open(util.ResolvePath(absDir, cfg.Journal.Path))
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		defer jdb.Close()
	}

	recent := util.NewRingBuffer[bridge.Emission](64)
	b.OnEmission(func(e bridge.Emission) {
		recent.Push(e)
		log.Printf("HOST: status %s %v", e.Event, e.Payload)
		if jdb != nil {
			if err := jdb.Append(e); err != nil {
				log.Printf("HOST: journal append: %v", err)
			}
		}
	})

	if err := b.AttachSurface(logContainer{}); err != nil {
		log.Fatalf("Attach surface failed: %v", err)
	}

	// Submit the demo call before the document loads: it waits in the
	// queue and flushes on load-complete.
	if *callWS != "" {
		b.StartCall(*callWS, *callToken, *callRoom, *callVideo)
	}

	rend.LoadDocument()

	log.Printf("HOST: running (Press Ctrl+C to stop)")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("HOST: shutting down")
	b.Disconnect()
	time.Sleep(300 * time.Millisecond)
	rend.Close()
	b.Close()

	if n := recent.Len(); n > 0 {
		fmt.Printf("\nLast %d status emission(s):\n", n)
		for _, e := range recent.Snapshot() {
			fmt.Printf("  %-18s %v\n", e.Event, e.Payload)
		}
	}
}

func initHostDir(dirArg string) {
	absDir, err := filepath.Abs(dirArg)
	if err != nil {
		log.Fatalf("Invalid host directory: %v", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		log.Fatalf("Failed to create host directory: %v", err)
	}

	cfgPath := filepath.Join(absDir, "bridge.json")
	cfg, created, err := config.Ensure(cfgPath)
	if err != nil {
		log.Fatalf("Failed to create config: %v", err)
	}
	if err := ensureAppScript(util.ResolvePath(absDir, cfg.Renderer.AppScript)); err != nil {
		log.Fatalf("Failed to write app script: %v", err)
	}

	if created {
		fmt.Printf("Initialized host directory %s\n", absDir)
	} else {
		fmt.Printf("Host directory %s already initialized\n", absDir)
	}
}

func showHistory(dirArg string) {
	absDir, err := filepath.Abs(dirArg)
	if err != nil {
		log.Fatalf("Invalid host directory: %v", err)
	}

	cfg, err := config.LoadPartial(filepath.Join(absDir, "bridge.json"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	jdb, err := journal.Open(util.ResolvePath(absDir, cfg.Journal.Path))
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer jdb.Close()

	entries, err := jdb.Recent(20)
	if err != nil {
		log.Fatalf("Failed to read journal: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No emissions journaled yet.")
		return
	}
	for _, e := range entries {
		ts := time.UnixMilli(e.TS).Format(time.RFC3339)
		fmt.Printf("%s  %-18s %v\n", ts, e.Event, e.Payload)
	}
}

// ensureAppScript writes the embedded default call app when no app script
// exists yet, so a fresh host dir works out of the box and dev mode has a
// file to edit.
func ensureAppScript(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(callapp.Source()), 0o644)
}

// logContainer is the host-owned surface slot for a headless host: it just
// records the attachment. A real UI host passes its own Container.
type logContainer struct{}

func (logContainer) Embed(s bridge.Surface) {
	log.Printf("HOST: surface %s attached", s.ID())
}

func showUsage() {
	fmt.Println("callbridge - call-control bridge host")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  callbridge                   Run host in the current directory")
	fmt.Println("  callbridge run <directory>   Run host in the given directory")
	fmt.Println("  callbridge init <directory>  Create a host directory with defaults")
	fmt.Println("  callbridge history <directory>  Show recent journaled emissions")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h        Show this help message")
	fmt.Println("  -version  Show version information")
	fmt.Println("  -ws       Signaling endpoint URL for a demo call")
	fmt.Println("  -token    Access token for the demo call")
	fmt.Println("  -room     Room name for the demo call (default: demo)")
	fmt.Println("  -video    Start the demo call with video (default: true)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Initialize and run a host")
	fmt.Println("  callbridge init ./host")
	fmt.Println("  callbridge run ./host")
	fmt.Println()
	fmt.Println("  # Run and start a call once the document is ready")
	fmt.Println("  callbridge -ws wss://media.example.org/rtc -token t0k3n -room Lobby run ./host")
}
