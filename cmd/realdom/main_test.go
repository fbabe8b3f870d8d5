package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	rderrors "github.com/vango-dev/realdom/internal/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func quietConfig(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "realdom.yaml", "log:\n  level: error\n")
}

func TestRunDemo(t *testing.T) {
	out, err := execute(t, "run", "--config", quietConfig(t))
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	for _, want := range []string{"stages: [[size color] [accessibility]]", "recolor list", "drop first item", "accessibility", "steps settled"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunJSON(t *testing.T) {
	scene := writeFile(t, t.TempDir(), "scene.yaml", `root:
  hid: box
  tag: div
  attrs: {color: red}
  children:
    - text: hello
steps:
  - name: recolor
    patches:
      - {op: SetAttr, hid: box, key: color, value: blue}
`)
	out, err := execute(t, "run", "--config", quietConfig(t), "--scene", scene, "--json")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	var report runReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, out)
	}
	if len(report.Steps) != 2 || report.Steps[1].Name != "recolor" {
		t.Fatalf("Steps = %+v", report.Steps)
	}
	for _, s := range report.Steps {
		if s.Pending != 0 {
			t.Errorf("step %q left %d nodes pending", s.Name, s.Pending)
		}
	}
	box := report.Tree.Children[0]
	if got := box.States["color"]; got != "{Value:blue}" {
		t.Errorf("color = %q, want {Value:blue}", got)
	}
}

func TestRunBadPatch(t *testing.T) {
	scene := writeFile(t, t.TempDir(), "scene.yaml", `root: {tag: div}
steps:
  - name: broken
    patches:
      - {op: SetText, hid: nowhere, value: x}
`)
	_, err := execute(t, "run", "--config", quietConfig(t), "--scene", scene)
	if got := rderrors.Code(err); got != "E007" {
		t.Errorf("Code() = %q, want E007 (err = %v)", got, err)
	}
}

func TestRunBadConfig(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "realdom.yaml", "engine:\n  workers: -1\n")
	_, err := execute(t, "run", "--config", cfg)
	if got := rderrors.Code(err); got != "E122" {
		t.Errorf("Code() = %q, want E122", got)
	}
}

func TestBench(t *testing.T) {
	out, err := execute(t, "bench", "--config", quietConfig(t), "--depth", "2", "--fanout", "2", "--rounds", "5")
	if err != nil {
		t.Fatalf("bench error = %v", err)
	}
	for _, want := range []string{"NODES", "P99", "cycles/round"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != version {
		t.Errorf("version = %q, want %q", got, version)
	}
}
