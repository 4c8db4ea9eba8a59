package main

import (
	"os"

	"github.com/sathvik-zluri/moneytrack/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
