package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bridgegen/internal/driver"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	traceCleanup(err != nil)
	return out.String(), err
}

func TestModuleName(t *testing.T) {
	cases := map[string]string{
		"demo":       "demo",
		"my-bridge":  "my_bridge",
		"2fast":      "bridge_2fast",
		"Größe":      "Größe",
		"with space": "with_space",
	}
	for in, want := range cases {
		if got := moduleName(in); got != want {
			t.Errorf("moduleName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFlagParsers(t *testing.T) {
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatalf("invalid ui mode accepted")
	}
	if m, err := readUIMode(""); err != nil || m != uiModeOff {
		t.Fatalf("empty ui mode = %q, %v", m, err)
	}
	if _, err := readColorMode("always"); err == nil {
		t.Fatalf("invalid color mode accepted")
	}
	if m, _ := readColorMode("ON"); !m.enabled(os.Stdout) {
		t.Fatalf("color on must be enabled")
	}
	if _, err := readDiagFormat("sarif"); err == nil {
		t.Fatalf("unsupported format accepted")
	}
}

func TestInitGenerateDescribe(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	out, err := execute(t, "init", "demo")
	if err != nil {
		t.Fatalf("init: %v\n%s", err, out)
	}
	if !strings.Contains(out, "bridge/demo.toml") {
		t.Fatalf("init output:\n%s", out)
	}
	if _, err := execute(t, "init", "demo"); err == nil {
		t.Fatalf("second init must refuse an existing project")
	}

	t.Chdir(filepath.Join(dir, "demo"))
	out, err = execute(t, "generate", "--no-cache")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	for _, name := range []string{"SwiftBridgeCore.h", "SwiftBridgeCore.swift", "demo/demo.h", "demo/demo.swift", "demo/demo.rs"} {
		if _, err := os.Stat(filepath.Join(dir, "demo", "generated", filepath.FromSlash(name))); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	out, err = execute(t, "describe", "--format", "json")
	if err != nil {
		t.Fatalf("describe: %v\n%s", err, out)
	}
	var d driver.Description
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("describe output is not JSON: %v\n%s", err, out)
	}
	if len(d.Types) != 1 || d.Types[0].Name != "Greeter" || d.Types[0].Kind != "opaque" {
		t.Fatalf("describe types = %+v", d.Types)
	}
}

func TestCheckReportsErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	bad := "[module]\nname = \"bad\"\n[[function]]\nname = \"f\"\nreturns = \"Missing\"\n"
	if err := os.WriteFile(filepath.Join(dir, "bad.toml"), []byte(bad), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "check", "--format", "short", "bad.toml")
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("check err = %v\n%s", err, out)
	}
	if !strings.Contains(out, "error TYP") || !strings.Contains(out, "bad.toml:") {
		t.Fatalf("short output lacks the location:\n%s", out)
	}
}

func TestVersionReport(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var report versionReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if report.Tool != "bridgegen" || report.Prefix != "__swift_bridge__" || len(report.Targets) == 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	out, err = execute(t, "version", "--format", "pretty", "--full")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "prefix:  __swift_bridge__") || !strings.Contains(out, "aarch64-apple-darwin") {
		t.Fatalf("pretty output:\n%s", out)
	}
	if _, err := execute(t, "version", "--format", "xml", "--full=false"); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
}
