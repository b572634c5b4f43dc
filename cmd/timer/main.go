package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/joho/godotenv"

	"github.com/hperssn/workplay/internal/driver"
)

// desktopNotifier raises OS notifications for mode switches and completion.
type desktopNotifier struct{}

func (desktopNotifier) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	serverURL := flag.String("server", envOr("WORKPLAY_SERVER", "http://localhost:8080"), "server base URL")
	user := flag.String("user", envOr("WORKPLAY_USER", ""), "session owner sent as X-Auth-User")
	hours := flag.Float64("hours", 0, "start a new session of this many hours")
	notify := flag.Bool("notify", true, "enable desktop notifications")
	flag.Parse()

	cfg := driver.Config{
		Store: driver.NewHTTPRemote(*serverURL, *user),
		OnSyncError: func(err error) {
			log.Printf("sync failed, local timer keeps running: %v", err)
		},
	}
	if *notify {
		cfg.Notifier = desktopNotifier{}
		cfg.RequestPermission = func() driver.Permission { return driver.PermissionGranted }
	} else {
		cfg.RequestPermission = func() driver.Permission { return driver.PermissionDenied }
	}

	d := driver.New(cfg)
	defer d.Close()

	ctx := context.Background()
	if err := d.Load(ctx); err != nil {
		log.Fatalf("fetch session: %v", err)
	}

	if _, ok := d.Snapshot(); !ok {
		if *hours <= 0 {
			log.Fatal("no active session; start one with -hours")
		}
		if err := d.Start(ctx, *hours); err != nil {
			log.Printf("session started locally, create not replicated yet: %v", err)
		}
	} else if *hours > 0 {
		log.Println("active session found, ignoring -hours")
	}

	go renderLoop(d)

	fmt.Println("commands: p=pause/resume  s=switch  r=reset  q=quit")
	commandLoop(ctx, d)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func renderLoop(d *driver.Driver) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s, ok := d.Snapshot()
		if !ok {
			continue
		}

		state := "paused"
		if s.IsRunning {
			state = "running"
		}
		if s.Complete() {
			state = "complete"
		}

		fmt.Printf("\r[%s] %s  work %s  play %s   ",
			state,
			s.CurrentMode,
			formatTime(s.WorkSecondsRemaining),
			formatTime(s.PlaySecondsRemaining),
		)
	}
}

func commandLoop(ctx context.Context, d *driver.Driver) {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "p":
			if err := d.PauseResume(ctx); err != nil {
				log.Printf("pause/resume: %v", err)
			}
		case "s":
			if err := d.Switch(ctx); err != nil {
				log.Printf("switch: %v", err)
			}
		case "r":
			if err := d.Reset(ctx); err != nil {
				log.Printf("reset: %v", err)
			}
			fmt.Println("\nsession reset")
			return
		case "q":
			fmt.Println()
			return
		case "":
		default:
			fmt.Println("\ncommands: p=pause/resume  s=switch  r=reset  q=quit")
		}
	}
}

func formatTime(seconds int) string {
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
