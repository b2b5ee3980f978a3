package cmd

import (
	"context"
	"fmt"

	"grimm.is/burrow/internal/brand"
	"grimm.is/burrow/internal/client"
)

// RunNetns handles the netns subcommands: list, create, remove, devices.
func RunNetns(socket string, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	c := client.New(socket)
	ctx := context.Background()

	switch args[0] {
	case "list", "ls":
		names, err := c.ListNamespaces(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			Printer.Println(name)
		}
		return nil

	case "create", "add":
		if len(args) < 2 {
			return usageError("netns create <name>")
		}
		if err := c.CreateNamespace(ctx, args[1]); err != nil {
			return err
		}
		Printer.Printf("Created namespace %s\n", args[1])
		return nil

	case "remove", "rm", "delete":
		if len(args) < 2 {
			return usageError("netns remove <name>")
		}
		if err := c.RemoveNamespace(ctx, args[1]); err != nil {
			return err
		}
		Printer.Printf("Removed namespace %s\n", args[1])
		return nil

	case "devices":
		if len(args) < 2 {
			return usageError("netns devices <name>")
		}
		ifaces, err := c.ListInterfaces(ctx, args[1])
		if err != nil {
			return err
		}
		for _, iface := range ifaces {
			Printer.Println(iface.Name)
		}
		return nil

	default:
		return fmt.Errorf("unknown netns subcommand %q", args[0])
	}
}

func usageError(usage string) error {
	return fmt.Errorf("usage: %s %s", brand.BinaryName, usage)
}
