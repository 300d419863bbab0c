package main

import (
	"os"

	"github.com/soyeahso/backoffice/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	if os.Getenv("BACKOFFICE_AUTORESTART") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		os.Stderr.WriteString("backoffice: " + err.Error() + "\n")
		os.Exit(1)
	}
}
