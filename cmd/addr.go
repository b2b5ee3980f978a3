package cmd

import (
	"context"
	"flag"
	"fmt"

	"grimm.is/burrow/internal/api"
	"grimm.is/burrow/internal/client"
)

// RunAddr handles the addr subcommands: list, add, del.
func RunAddr(socket string, args []string) error {
	if len(args) == 0 {
		return usageError("addr <list|add|del> ...")
	}
	c := client.New(socket)
	ctx := context.Background()

	switch args[0] {
	case "list", "ls":
		flags := flag.NewFlagSet("addr list", flag.ExitOnError)
		ns := flags.String("netns", "default", "Network namespace")
		flags.Parse(args[1:])

		// No device argument lists the whole namespace.
		addrs, err := c.ListAddresses(ctx, *ns, flags.Arg(0))
		if err != nil {
			return err
		}
		for _, a := range addrs {
			line := fmt.Sprintf("%d: %s scope %s", a.Index, a.CIDR, a.Scope)
			if a.Broadcast != "" {
				line += " brd " + a.Broadcast
			}
			Printer.Println(line)
		}
		return nil

	case "add":
		flags := flag.NewFlagSet("addr add", flag.ExitOnError)
		ns := flags.String("netns", "default", "Network namespace")
		scope := flags.String("scope", "global", "Address scope (global, link, host or a numeric code)")
		broadcast := flags.Bool("broadcast", false, "Derive and set the broadcast address (IPv4 only)")
		flags.Parse(args[1:])
		if flags.NArg() < 2 {
			return usageError("addr add [--netns <ns>] [--scope <scope>] [--broadcast] <device> <cidr>")
		}

		err := c.AddAddress(ctx, *ns, flags.Arg(0), api.AddressRequest{
			CIDR:      flags.Arg(1),
			Scope:     *scope,
			Broadcast: *broadcast,
		})
		if err != nil {
			return err
		}
		Printer.Printf("Added %s to %s\n", flags.Arg(1), flags.Arg(0))
		return nil

	case "del", "delete", "rm":
		flags := flag.NewFlagSet("addr del", flag.ExitOnError)
		ns := flags.String("netns", "default", "Network namespace")
		flags.Parse(args[1:])
		if flags.NArg() < 2 {
			return usageError("addr del [--netns <ns>] <device> <cidr>")
		}

		err := c.DeleteAddress(ctx, *ns, flags.Arg(0), api.AddressRequest{CIDR: flags.Arg(1)})
		if err != nil {
			return err
		}
		Printer.Printf("Removed %s from %s\n", flags.Arg(1), flags.Arg(0))
		return nil

	default:
		return fmt.Errorf("unknown addr subcommand %q", args[0])
	}
}
