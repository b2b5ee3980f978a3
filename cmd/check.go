package cmd

import (
	"fmt"
	"strings"

	"grimm.is/burrow/internal/config"
)

// RunCheck validates a daemon configuration file and, optionally, a
// manifest, without touching the kernel.
func RunCheck(configFile, manifestFile string) error {
	if configFile != "" {
		cfg, err := config.LoadFile(configFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		Printer.Printf("Configuration valid: %s\n", configFile)
		Printer.Printf("  Socket: %s\n", cfg.API.Socket)
		Printer.Printf("  Netlink timeout: %s\n", cfg.NetlinkTimeout())
	}

	if manifestFile != "" {
		manifest, err := config.LoadManifest(manifestFile)
		if err != nil {
			return fmt.Errorf("manifest invalid: %w", err)
		}
		Printer.Printf("Manifest valid: %s\n", manifestFile)
		for _, ns := range manifest.Namespaces {
			devices := make([]string, 0, len(ns.Interfaces))
			for _, iface := range ns.Interfaces {
				devices = append(devices, iface.Name)
			}
			Printer.Printf("  %s: %d interface(s) [%s], %d rule(s)\n",
				ns.Name, len(ns.Interfaces), strings.Join(devices, ", "), len(ns.Rules))
		}
	}

	if configFile == "" && manifestFile == "" {
		return usageError("check [--config <file>] [--manifest <file>]")
	}
	return nil
}
