package cmd

import (
	"context"
	"flag"
	"fmt"

	"grimm.is/burrow/internal/api"
	"grimm.is/burrow/internal/client"
)

// RunRule handles the rule subcommands: list, add, del.
func RunRule(socket string, args []string) error {
	if len(args) == 0 {
		return usageError("rule <list|add|del> ...")
	}
	c := client.New(socket)
	ctx := context.Background()

	switch args[0] {
	case "list", "ls":
		flags := flag.NewFlagSet("rule list", flag.ExitOnError)
		ns := flags.String("netns", "default", "Network namespace")
		family := flags.Int("family", 4, "Address family (4 or 6)")
		flags.Parse(args[1:])

		rules, err := c.ListRules(ctx, *ns, *family)
		if err != nil {
			return err
		}
		for _, r := range rules {
			line := fmt.Sprintf("%d:", r.Priority)
			if r.Src != "" {
				line += " from " + r.Src
			} else {
				line += " from all"
			}
			if r.IIFName != "" {
				line += " iif " + r.IIFName
			}
			line += fmt.Sprintf(" lookup %d", r.Table)
			Printer.Println(line)
		}
		return nil

	case "add":
		flags := flag.NewFlagSet("rule add", flag.ExitOnError)
		ns, req := ruleFlags(flags)
		flags.Parse(args[1:])

		if err := c.AddRule(ctx, *ns, *req); err != nil {
			return err
		}
		Printer.Println("Rule added")
		return nil

	case "del", "delete", "rm":
		flags := flag.NewFlagSet("rule del", flag.ExitOnError)
		ns, req := ruleFlags(flags)
		flags.Parse(args[1:])

		if err := c.DeleteRule(ctx, *ns, *req); err != nil {
			return err
		}
		Printer.Println("Rule deleted")
		return nil

	default:
		return fmt.Errorf("unknown rule subcommand %q", args[0])
	}
}

// ruleFlags registers the shared rule selector flags. Priority and
// table distinguish "unset" from zero, so they map to pointers only
// when given on the command line.
func ruleFlags(flags *flag.FlagSet) (*string, *api.RuleRequest) {
	ns := flags.String("netns", "default", "Network namespace")
	req := &api.RuleRequest{}

	flags.IntVar(&req.Family, "family", 4, "Address family (4 or 6)")
	flags.StringVar(&req.Src, "src", "", "Source prefix (CIDR)")
	flags.StringVar(&req.IIFName, "iif", "", "Input interface name")
	flags.Func("priority", "Rule priority", func(s string) error {
		var v int
		if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
			return err
		}
		req.Priority = &v
		return nil
	})
	flags.Func("table", "Routing table", func(s string) error {
		var v int
		if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
			return err
		}
		req.Table = &v
		return nil
	})
	return ns, req
}
