package main

import (
	"fmt"
	"os"

	"github.com/chrissnell/solarstats/internal/cli"
)

func main() {
	if err := cli.NewReportCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "solar-report: %v\n", err)
		os.Exit(1)
	}
}
