package main

import (
	"os"

	"github.com/santiway/radiowatch/cmd"
	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		logging.Fatal("error loading settings", "error", err)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
