// Command neotrader is the Kotak Neo trading CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"neo-trader/internal/cli"
	"neo-trader/internal/config"
	"neo-trader/internal/logging"
)

func main() {
	// The config directory is needed before cobra parses anything
	// because configuration drives command construction.
	configDir := bootstrapConfigDir(os.Args[1:])

	logger := logging.NewLogger()

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Missing credentials are a fatal startup error.
	if err := cfg.ValidateCredentials(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "edit %s/credentials.toml or set the KOTAK_* environment variables\n",
			configDirOrDefault(configDir))
		os.Exit(1)
	}

	rootCmd := cli.NewRootCmd(cfg, configDir, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func bootstrapConfigDir(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

func configDirOrDefault(dir string) string {
	if dir != "" {
		return dir
	}
	return config.DefaultConfigDir()
}
