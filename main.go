package main

import (
	"flag"
	"os"

	"grimm.is/burrow/cmd"
	"grimm.is/burrow/internal/brand"
	"grimm.is/burrow/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	defaultConfig := brand.DefaultConfigDir + "/" + brand.ConfigFileName

	switch os.Args[1] {
	case "serve":
		serveFlags := flag.NewFlagSet("serve", flag.ExitOnError)
		configFile := serveFlags.String("config", defaultConfig, "Configuration file")
		serveFlags.StringVar(configFile, "c", defaultConfig, "Configuration file (short)")
		serveFlags.Parse(os.Args[2:])

		if err := cmd.RunServe(*configFile); err != nil {
			printer.Fprintf(os.Stderr, "Serve failed: %v\n", err)
			os.Exit(1)
		}

	case "status":
		statusFlags := flag.NewFlagSet("status", flag.ExitOnError)
		socket := statusFlags.String("socket", "", "Daemon socket path")
		statusFlags.Parse(os.Args[2:])

		if err := cmd.RunStatus(*socket); err != nil {
			printer.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}

	case "netns":
		socket, rest := socketFlag("netns")
		if err := cmd.RunNetns(socket, rest); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "link":
		socket, rest := socketFlag("link")
		if err := cmd.RunLink(socket, rest); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "addr":
		socket, rest := socketFlag("addr")
		if err := cmd.RunAddr(socket, rest); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "rule":
		socket, rest := socketFlag("rule")
		if err := cmd.RunRule(socket, rest); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "apply":
		applyFlags := flag.NewFlagSet("apply", flag.ExitOnError)
		socket := applyFlags.String("socket", "", "Daemon socket path")
		applyFlags.Parse(os.Args[2:])
		if applyFlags.NArg() < 1 {
			printer.Println("Usage: " + brand.BinaryName + " apply [--socket <path>] <manifest-file>")
			os.Exit(1)
		}

		if err := cmd.RunApply(*socket, applyFlags.Arg(0)); err != nil {
			printer.Fprintf(os.Stderr, "Apply failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		configFile := checkFlags.String("config", "", "Configuration file to validate")
		manifestFile := checkFlags.String("manifest", "", "Manifest file to validate")
		checkFlags.Parse(os.Args[2:])

		// bare argument is treated as the config file
		if *configFile == "" && *manifestFile == "" && checkFlags.NArg() > 0 {
			*configFile = checkFlags.Arg(0)
		}

		if err := cmd.RunCheck(*configFile, *manifestFile); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "events":
		if err := cmd.RunEvents(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "Events failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		printer.Printf("%s version %s\n", brand.Name, brand.Version)
		printer.Printf("Build: %s (%s)\n", brand.BuildTime, brand.GitCommit)

	case "help", "-h", "--help":
		printUsage()

	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// socketFlag peels a leading --socket flag off a subcommand's argument
// list, leaving the rest for the subcommand's own parsing.
func socketFlag(name string) (string, []string) {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	socket := flags.String("socket", "", "Daemon socket path")
	flags.Parse(os.Args[2:])
	return *socket, flags.Args()
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Daemon:
  serve     Run the daemon (foreground)
            Options: --config (-c) <file>
  status    Show daemon status

Kernel State:
  netns     Manage network namespaces
            Subcommands: list, create, remove, devices
  link      Manage interfaces
            Subcommands: list, add, del, up
  addr      Manage interface addresses
            Subcommands: list, add, del
  rule      Manage routing policy rules
            Subcommands: list, add, del

Utility:
  apply     Apply a declarative manifest
  check     Validate configuration and manifest files
            Options: --config <file>, --manifest <file>
  events    Stream live events or query history
            Options: --types <list>, --history, --since <rfc3339>, --limit <n>
  version   Print version information

Most commands accept --socket <path> to target a non-default daemon.

Examples:
  %s serve --config /etc/burrow/burrow.hcl
  %s netns create blue
  %s link add --netns blue --up dummy0
  %s addr add --netns blue --broadcast dummy0 192.168.10.1/24
  %s rule add --netns blue --family 4 --priority 100 --table 4000 --src 10.0.0.0/8
  %s events --types rule.add,rule.delete
`,
		brand.Name, brand.Description,
		brand.LowerName,
		brand.LowerName, brand.LowerName, brand.LowerName,
		brand.LowerName, brand.LowerName, brand.LowerName)
}
