package main

import (
	"flag"
	"fmt"
	"os"

	"chatd/internal/config"
	"chatd/internal/daemon"
	"chatd/internal/home"

	"go.uber.org/fx"
)

func main() {
	dataDirFlag := flag.String("data-dir", "", "data directory (default ~/.chatd)")
	listenFlag := flag.String("listen", "", "listen address (overrides config)")
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

	app := fx.New(
		daemon.Module(daemon.Params{
			Config:     cfg,
			DataDir:    dataDir,
			ListenAddr: *listenFlag,
		}),
	)

	app.Run()
}
