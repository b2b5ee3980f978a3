package cmd

import (
	"context"
	"flag"
	"fmt"

	"grimm.is/burrow/internal/client"
	"grimm.is/burrow/internal/netstate"
)

// RunLink handles the link subcommands: list, add, del, up.
func RunLink(socket string, args []string) error {
	if len(args) == 0 {
		return usageError("link <list|add|del|up> ...")
	}
	c := client.New(socket)
	ctx := context.Background()

	switch args[0] {
	case "list", "ls":
		flags := flag.NewFlagSet("link list", flag.ExitOnError)
		ns := flags.String("netns", "default", "Network namespace")
		flags.Parse(args[1:])

		ifaces, err := c.ListInterfaces(ctx, *ns)
		if err != nil {
			return err
		}
		for _, iface := range ifaces {
			state := "DOWN"
			if iface.Up {
				state = "UP"
			}
			Printer.Printf("%d: %s %s kind %s mtu %d\n",
				iface.Index, iface.Name, state, iface.Kind, iface.MTU)
		}
		return nil

	case "add":
		flags := flag.NewFlagSet("link add", flag.ExitOnError)
		ns := flags.String("netns", "default", "Network namespace")
		kind := flags.String("kind", "dummy", "Device kind")
		index := flags.Int("index", 0, "Explicit interface index (0 lets the kernel pick)")
		up := flags.Bool("up", false, "Bring the interface up after creation")
		flags.Parse(args[1:])
		if flags.NArg() < 1 {
			return usageError("link add [--netns <ns>] [--kind <kind>] [--index <n>] [--up] <name>")
		}

		iface, err := c.CreateInterface(ctx, *ns, netstate.InterfaceRequest{
			Name:  flags.Arg(0),
			Kind:  *kind,
			Index: *index,
			Up:    *up,
		})
		if err != nil {
			return err
		}
		Printer.Printf("Created %s index %d\n", iface.Name, iface.Index)
		return nil

	case "del", "delete", "rm":
		flags := flag.NewFlagSet("link del", flag.ExitOnError)
		ns := flags.String("netns", "default", "Network namespace")
		flags.Parse(args[1:])
		if flags.NArg() < 1 {
			return usageError("link del [--netns <ns>] <name>")
		}

		if err := c.DeleteInterface(ctx, *ns, flags.Arg(0)); err != nil {
			return err
		}
		Printer.Printf("Deleted %s\n", flags.Arg(0))
		return nil

	case "up":
		flags := flag.NewFlagSet("link up", flag.ExitOnError)
		ns := flags.String("netns", "default", "Network namespace")
		flags.Parse(args[1:])
		if flags.NArg() < 1 {
			return usageError("link up [--netns <ns>] <name>")
		}

		if err := c.SetInterfaceUp(ctx, *ns, flags.Arg(0)); err != nil {
			return err
		}
		Printer.Printf("Interface %s is up\n", flags.Arg(0))
		return nil

	default:
		return fmt.Errorf("unknown link subcommand %q", args[0])
	}
}
