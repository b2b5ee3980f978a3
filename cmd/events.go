package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"grimm.is/burrow/internal/client"
)

// RunEvents streams live events or queries persisted history.
func RunEvents(args []string) error {
	flags := flag.NewFlagSet("events", flag.ExitOnError)
	socket := flags.String("socket", "", "Daemon socket path")
	types := flags.String("types", "", "Comma-separated event types to subscribe to")
	history := flags.Bool("history", false, "Query persisted history instead of streaming")
	since := flags.String("since", "", "History start time (RFC3339)")
	limit := flags.Int("limit", 100, "Maximum history entries")
	flags.Parse(args)

	c := client.New(*socket)

	if *history {
		var from time.Time
		if *since != "" {
			t, err := time.Parse(time.RFC3339, *since)
			if err != nil {
				return fmt.Errorf("invalid --since value: %w", err)
			}
			from = t
		}
		entries, err := c.History(context.Background(), from, *limit)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var filter []string
	if *types != "" {
		filter = strings.Split(*types, ",")
	}
	ch, err := c.Events(ctx, filter...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for ev := range ch {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
