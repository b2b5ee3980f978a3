package cmd

import (
	"context"
	"time"

	"grimm.is/burrow/internal/client"
	"grimm.is/burrow/internal/i18n"
)

var Printer = i18n.NewCLIPrinter()

// RunStatus queries the daemon for current status and prints it.
func RunStatus(socket string) error {
	c := client.New(socket)
	status, err := c.Status(context.Background())
	if err != nil {
		return err
	}

	Printer.Printf("Version:    %s\n", status.Version)
	Printer.Printf("Uptime:     %s\n", time.Duration(status.UptimeSecs)*time.Second)
	Printer.Printf("Namespaces: %d\n", len(status.Namespaces))
	for _, ns := range status.Namespaces {
		Printer.Printf("  %s\n", ns)
	}
	return nil
}
