package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/txm-control/txm-go/pkg/pv"
)

const validConfig = `
permitGranted: true
endpoints:
  - name: sample_x
    address: ioc:m1.VAL
    type: float
    wait: true
  - name: shutter_open
    address: ioc:shtr:Open
    type: int
    wait: true
    permitRequired: true
  - name: shutter_status
    address: ioc:shtr:Status
    type: int
  - name: image_mode
    address: ioc:cam1:ImageMode
    type: string
    wait: true
waiter:
  interval: 50ms
  tolerance: 0.01
session:
  snapshot:
    - sample_x
  arm:
    - endpoint: shutter_open
      value: 1
  teardown:
    - endpoint: image_mode
      value: Continuous
historyPath: /var/lib/txm/history.db
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validConfig))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !cfg.PermitGranted {
		t.Error("PermitGranted = false, want true")
	}
	if len(cfg.Endpoints) != 4 {
		t.Errorf("len(Endpoints) = %d, want 4", len(cfg.Endpoints))
	}
	if cfg.Waiter.Interval != 50*time.Millisecond {
		t.Errorf("Waiter.Interval = %v, want 50ms", cfg.Waiter.Interval)
	}
	if cfg.HistoryPath != "/var/lib/txm/history.db" {
		t.Errorf("HistoryPath = %q", cfg.HistoryPath)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		mangle  func(string) string
		wantMsg string
	}{
		{
			name:    "no endpoints",
			mangle:  func(string) string { return "permitGranted: true" },
			wantMsg: "no endpoints",
		},
		{
			name:    "unknown type",
			mangle:  func(s string) string { return strings.Replace(s, "type: float", "type: double", 1) },
			wantMsg: `endpoint "sample_x"`,
		},
		{
			name:    "duplicate endpoint",
			mangle:  func(s string) string { return strings.Replace(s, "name: shutter_status", "name: sample_x", 1) },
			wantMsg: "declared twice",
		},
		{
			name:    "undeclared snapshot endpoint",
			mangle:  func(s string) string { return strings.Replace(s, "- sample_x\n", "- sample_q\n", 1) },
			wantMsg: `snapshot names undeclared endpoint "sample_q"`,
		},
		{
			name:    "undeclared teardown endpoint",
			mangle:  func(s string) string { return strings.Replace(s, "endpoint: image_mode", "endpoint: nonexistent", 1) },
			wantMsg: `teardown names undeclared endpoint "nonexistent"`,
		},
		{
			name:    "negative tolerance",
			mangle:  func(s string) string { return strings.Replace(s, "tolerance: 0.01", "tolerance: -1", 1) },
			wantMsg: "tolerance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mangle(validConfig)))
			if err == nil {
				t.Fatal("Parse succeeded, want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	cfg, err := Parse([]byte(validConfig))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	registry, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry failed: %v", err)
	}

	ep, err := registry.Lookup("shutter_open")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ep.Type != pv.ValueTypeInt {
		t.Errorf("Type = %v, want int", ep.Type)
	}
	if !ep.PermitRequired {
		t.Error("PermitRequired = false, want true")
	}
	if !ep.Wait {
		t.Error("Wait = false, want true")
	}

	ep, err = registry.Lookup("shutter_status")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ep.Wait {
		t.Error("Wait = true, want false for undeclared wait")
	}
}

func TestSessionConfig(t *testing.T) {
	cfg, err := Parse([]byte(validConfig))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sc := cfg.SessionConfig()

	if len(sc.Snapshot) != 1 || sc.Snapshot[0] != "sample_x" {
		t.Errorf("Snapshot = %v, want [sample_x]", sc.Snapshot)
	}
	if len(sc.Arm) != 1 || sc.Arm[0].Endpoint != "shutter_open" {
		t.Errorf("Arm = %v, want shutter_open step", sc.Arm)
	}
	if len(sc.Teardown) != 1 || sc.Teardown[0].Value != "Continuous" {
		t.Errorf("Teardown = %v, want image_mode Continuous", sc.Teardown)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instrument.yaml")
	if err := os.WriteFile(path, []byte(validConfig), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Endpoints) != 4 {
		t.Errorf("len(Endpoints) = %d, want 4", len(cfg.Endpoints))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file succeeded, want error")
	}
}
