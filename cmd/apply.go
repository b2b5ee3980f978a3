package cmd

import (
	"context"
	"fmt"

	"grimm.is/burrow/internal/api"
	"grimm.is/burrow/internal/client"
	"grimm.is/burrow/internal/config"
	"grimm.is/burrow/internal/netstate"
)

// RunApply loads a declarative manifest and drives the daemon to match
// it: namespaces, interfaces, addresses, then rules. Resources that
// already exist are skipped rather than treated as failures, so apply
// is safe to re-run.
func RunApply(socket, manifestPath string) error {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	c := client.New(socket)
	ctx := context.Background()

	for _, ns := range manifest.Namespaces {
		if err := applyNamespace(ctx, c, ns); err != nil {
			return fmt.Errorf("namespace %q: %w", ns.Name, err)
		}
	}
	Printer.Printf("Applied %s: %d namespace(s)\n", manifestPath, len(manifest.Namespaces))
	return nil
}

func applyNamespace(ctx context.Context, c *client.Client, ns config.NamespaceSpec) error {
	err := c.CreateNamespace(ctx, ns.Name)
	switch {
	case err == nil:
		Printer.Printf("Created namespace %s\n", ns.Name)
	case client.IsConflict(err):
		Printer.Printf("Namespace %s already exists\n", ns.Name)
	default:
		return err
	}

	for _, iface := range ns.Interfaces {
		if err := applyInterface(ctx, c, ns.Name, iface); err != nil {
			return fmt.Errorf("interface %q: %w", iface.Name, err)
		}
	}
	for _, rule := range ns.Rules {
		if err := c.AddRule(ctx, ns.Name, ruleRequest(rule)); err != nil {
			if client.IsConflict(err) {
				continue
			}
			return fmt.Errorf("rule: %w", err)
		}
	}
	return nil
}

func applyInterface(ctx context.Context, c *client.Client, ns string, spec config.InterfaceSpec) error {
	_, err := c.CreateInterface(ctx, ns, netstate.InterfaceRequest{
		Name:  spec.Name,
		Kind:  spec.Kind,
		Index: spec.Index,
		Up:    spec.Up,
	})
	switch {
	case err == nil:
		Printer.Printf("Created interface %s in %s\n", spec.Name, ns)
	case client.IsConflict(err):
		if spec.Up {
			if err := c.SetInterfaceUp(ctx, ns, spec.Name); err != nil {
				return err
			}
		}
	default:
		return err
	}

	for _, addr := range spec.Addresses {
		err := c.AddAddress(ctx, ns, spec.Name, api.AddressRequest{
			CIDR:      addr.CIDR,
			Scope:     addr.Scope,
			Broadcast: addr.Broadcast,
		})
		if err != nil && !client.IsConflict(err) {
			return fmt.Errorf("address %s: %w", addr.CIDR, err)
		}
	}
	return nil
}

func ruleRequest(spec config.RuleSpec) api.RuleRequest {
	family := spec.Family
	if family == 0 {
		family = 4
	}
	req := api.RuleRequest{
		Family:   family,
		Priority: spec.Priority,
		Table:    spec.Table,
		IIFName:  spec.IIFName,
	}
	if spec.Src != "" {
		req.Src = fmt.Sprintf("%s/%d", spec.Src, spec.SrcLen)
	}
	return req
}

