package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Manifest is a declarative description of desired namespace state,
// applied in one shot by `burrow apply`. Order matters: namespaces are
// created first, then interfaces, addresses, and rules inside them.
type Manifest struct {
	Namespaces []NamespaceSpec `yaml:"namespaces"`
}

// NamespaceSpec describes one namespace and its contents.
type NamespaceSpec struct {
	Name       string          `yaml:"name"`
	Interfaces []InterfaceSpec `yaml:"interfaces,omitempty"`
	Rules      []RuleSpec      `yaml:"rules,omitempty"`
}

// InterfaceSpec describes a virtual interface to create.
type InterfaceSpec struct {
	Name      string        `yaml:"name"`
	Kind      string        `yaml:"kind"`
	Index     int           `yaml:"index,omitempty"`
	Up        bool          `yaml:"up,omitempty"`
	Addresses []AddressSpec `yaml:"addresses,omitempty"`
}

// AddressSpec describes an address to bind to an interface.
type AddressSpec struct {
	CIDR      string `yaml:"cidr"`
	Scope     string `yaml:"scope,omitempty"`
	Broadcast bool   `yaml:"broadcast,omitempty"`
}

// RuleSpec describes a policy rule to add.
type RuleSpec struct {
	Family   int    `yaml:"family,omitempty"`
	Priority *int   `yaml:"priority,omitempty"`
	Table    *int   `yaml:"table,omitempty"`
	Src      string `yaml:"src,omitempty"`
	SrcLen   int    `yaml:"src_len,omitempty"`
	IIFName  string `yaml:"iifname,omitempty"`
}

// LoadManifest reads a YAML manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest for obvious mistakes before anything is
// applied to the kernel.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool)
	for _, ns := range m.Namespaces {
		if ns.Name == "" {
			return fmt.Errorf("namespace with empty name")
		}
		if seen[ns.Name] {
			return fmt.Errorf("duplicate namespace %q", ns.Name)
		}
		seen[ns.Name] = true

		ifaces := make(map[string]bool)
		for _, iface := range ns.Interfaces {
			if iface.Name == "" {
				return fmt.Errorf("namespace %q: interface with empty name", ns.Name)
			}
			if iface.Kind == "" {
				return fmt.Errorf("namespace %q: interface %q has no kind", ns.Name, iface.Name)
			}
			if ifaces[iface.Name] {
				return fmt.Errorf("namespace %q: duplicate interface %q", ns.Name, iface.Name)
			}
			ifaces[iface.Name] = true
			for _, addr := range iface.Addresses {
				if addr.CIDR == "" {
					return fmt.Errorf("namespace %q: interface %q: address with empty cidr", ns.Name, iface.Name)
				}
			}
		}

		for i, rule := range ns.Rules {
			if rule.Family != 0 && rule.Family != 4 && rule.Family != 6 {
				return fmt.Errorf("namespace %q: rule %d: family must be 4 or 6", ns.Name, i)
			}
		}
	}
	return nil
}
