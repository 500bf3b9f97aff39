package main

import (
	"os"

	"github.com/moolen/logsieve/cmd/logsieve/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
