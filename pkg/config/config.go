// Package config loads instrument configuration from YAML files.
//
// A configuration file declares the endpoint table, the permit flag, waiter
// defaults, the scan-session endpoint subset, and the history database path.
// Parse validates every declaration and names the offending entry in its
// errors; Build converts the validated file into the runtime types.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/txm-control/txm-go/pkg/pv"
	"github.com/txm-control/txm-go/pkg/session"
	"github.com/txm-control/txm-go/pkg/waiter"
)

// RawEndpoint represents one endpoint declaration loaded from YAML.
type RawEndpoint struct {
	Name           string `yaml:"name"`
	Address        string `yaml:"address"`
	Type           string `yaml:"type"` // "float", "int", "bool", "string"
	Wait           bool   `yaml:"wait"`
	PermitRequired bool   `yaml:"permitRequired"`
}

// RawWaiter represents the poll-wait defaults.
type RawWaiter struct {
	Interval  time.Duration `yaml:"interval"`
	Tolerance float64       `yaml:"tolerance"`
}

// RawStep represents one fixed session write.
type RawStep struct {
	Endpoint string `yaml:"endpoint"`
	Value    any    `yaml:"value"`
}

// RawSession represents the scan-session endpoint subset.
type RawSession struct {
	Snapshot []string  `yaml:"snapshot"`
	Arm      []RawStep `yaml:"arm"`
	Teardown []RawStep `yaml:"teardown"`
}

// RawConfig represents a full instrument configuration file.
type RawConfig struct {
	PermitGranted bool          `yaml:"permitGranted"`
	Endpoints     []RawEndpoint `yaml:"endpoints"`
	Waiter        RawWaiter     `yaml:"waiter"`
	Session       RawSession    `yaml:"session"`
	HistoryPath   string        `yaml:"historyPath"`
}

// Parse parses an instrument configuration from YAML bytes and validates
// every declaration.
func Parse(data []byte) (*RawConfig, error) {
	var cfg RawConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads and parses an instrument configuration from a file.
func Load(path string) (*RawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

func (c *RawConfig) validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("config: no endpoints declared")
	}
	declared := make(map[string]bool, len(c.Endpoints))
	for i, ep := range c.Endpoints {
		if ep.Name == "" {
			return fmt.Errorf("config: endpoint %d has no name", i)
		}
		if ep.Address == "" {
			return fmt.Errorf("config: endpoint %q has no address", ep.Name)
		}
		if _, err := parseValueType(ep.Type); err != nil {
			return fmt.Errorf("config: endpoint %q: %w", ep.Name, err)
		}
		if declared[ep.Name] {
			return fmt.Errorf("config: endpoint %q declared twice", ep.Name)
		}
		declared[ep.Name] = true
	}

	if c.Waiter.Interval < 0 {
		return fmt.Errorf("config: waiter interval must not be negative")
	}
	if c.Waiter.Tolerance < 0 {
		return fmt.Errorf("config: waiter tolerance must not be negative")
	}

	for _, name := range c.Session.Snapshot {
		if !declared[name] {
			return fmt.Errorf("config: session snapshot names undeclared endpoint %q", name)
		}
	}
	for _, st := range c.Session.Arm {
		if !declared[st.Endpoint] {
			return fmt.Errorf("config: session arm names undeclared endpoint %q", st.Endpoint)
		}
	}
	for _, st := range c.Session.Teardown {
		if !declared[st.Endpoint] {
			return fmt.Errorf("config: session teardown names undeclared endpoint %q", st.Endpoint)
		}
	}
	return nil
}

// Registry builds the endpoint registry from the declarations.
func (c *RawConfig) Registry() (*pv.Registry, error) {
	endpoints := make([]pv.Endpoint, 0, len(c.Endpoints))
	for _, raw := range c.Endpoints {
		typ, err := parseValueType(raw.Type)
		if err != nil {
			return nil, fmt.Errorf("config: endpoint %q: %w", raw.Name, err)
		}
		endpoints = append(endpoints, pv.Endpoint{
			Name:           raw.Name,
			Address:        raw.Address,
			Type:           typ,
			Wait:           raw.Wait,
			PermitRequired: raw.PermitRequired,
		})
	}
	return pv.NewRegistry(endpoints...)
}

// WaiterConfig returns the configured poll-wait defaults.
func (c *RawConfig) WaiterConfig() waiter.Config {
	return waiter.Config{Interval: c.Waiter.Interval, Tolerance: c.Waiter.Tolerance}
}

// SessionConfig returns the configured scan-session subset.
func (c *RawConfig) SessionConfig() session.Config {
	return session.Config{
		Snapshot: append([]string(nil), c.Session.Snapshot...),
		Arm:      convertSteps(c.Session.Arm),
		Teardown: convertSteps(c.Session.Teardown),
	}
}

func convertSteps(raw []RawStep) []session.Step {
	if len(raw) == 0 {
		return nil
	}
	steps := make([]session.Step, len(raw))
	for i, st := range raw {
		steps[i] = session.Step{Endpoint: st.Endpoint, Value: st.Value}
	}
	return steps
}

func parseValueType(s string) (pv.ValueType, error) {
	switch s {
	case "float":
		return pv.ValueTypeFloat, nil
	case "int":
		return pv.ValueTypeInt, nil
	case "bool":
		return pv.ValueTypeBool, nil
	case "string":
		return pv.ValueTypeString, nil
	default:
		return pv.ValueTypeUnknown, fmt.Errorf("unknown value type %q", s)
	}
}
