package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/fllscore/ddzledger/internal/cli"
)

func main() {
	// Missing .env is fine; real deployments configure via the
	// environment or the YAML file.
	_ = godotenv.Load()

	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
