package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"chatd/internal/client"
	"chatd/internal/config"
	"chatd/internal/home"
	"chatd/internal/tui"
)

func main() {
	dataDirFlag := flag.String("data-dir", "", "data directory (default ~/.chatd)")
	addrFlag := flag.String("addr", "", "daemon address (overrides config)")
	actorFlag := flag.String("actor", "", "actor id or name from config (default: first configured)")
	flag.Parse()

	dataDir := *dataDirFlag
	if dataDir == "" {
		dataDir = home.DefaultDir()
	}
	cfg, err := config.LoadOrDefault(home.ConfigPath(dataDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}

	actor := resolveActor(cfg, *actorFlag)
	addr := *addrFlag
	if addr == "" {
		addr = "http://" + cfg.ListenAddr
	}

	c := client.New(addr, actor.Token)

	// Probe daemon health; auto-start if needed.
	if !probeDaemon(c) {
		fmt.Fprintf(os.Stderr, "daemon not running at %s, starting...\n", addr)
		if err := startDaemon(dataDir); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start daemon: %v\n", err)
			os.Exit(1)
		}
		if !waitForDaemon(c, 10*time.Second) {
			fmt.Fprintln(os.Stderr, "daemon did not become ready")
			os.Exit(1)
		}
	}

	actorID := actor.ID
	if actorID == "" {
		actorID = actor.Name
	}
	app := tui.NewApp(c, actorID, actor.Name,
		time.Duration(cfg.PollIntervalMS)*time.Millisecond, cfg.SnapshotLimit)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func resolveActor(cfg *config.Config, name string) config.Actor {
	if len(cfg.Actors) == 0 {
		fmt.Fprintln(os.Stderr, "error: no actors configured; add one to config.toml")
		os.Exit(1)
	}
	if name == "" {
		return cfg.Actors[0]
	}
	for _, a := range cfg.Actors {
		if a.ID == name || a.Name == name {
			return a
		}
	}
	fmt.Fprintf(os.Stderr, "error: actor %q not found in config\n", name)
	os.Exit(1)
	return config.Actor{}
}

// probeDaemon checks the daemon with a real status call, not just a dial.
func probeDaemon(c *client.Client) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := c.Status(ctx)
	return err == nil && st.State == "READY"
}

func startDaemon(dataDir string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	chatd := filepath.Join(filepath.Dir(executable), "chatd")

	if _, err := os.Stat(chatd); err != nil {
		chatd = "chatd"
	}

	cmd := exec.Command(chatd, "--data-dir", dataDir)
	// Inherit stderr so daemon startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func waitForDaemon(c *client.Client, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeDaemon(c) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
