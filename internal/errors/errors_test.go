package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "cycle",
			code:    "E001",
			wantMsg: "Dependency cycle between states",
			wantCat: CategoryConstruction,
		},
		{
			name:    "borrow conflict",
			code:    "E005",
			wantMsg: "Component borrow conflict",
			wantCat: CategoryRuntime,
		},
		{
			name:    "config",
			code:    "E120",
			wantMsg: "Invalid configuration file",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "scene %q not found", "demo.yaml")
	if err.Message != `scene "demo.yaml" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestError_Error(t *testing.T) {
	err := New("E002")
	if got, want := err.Error(), "E002: Unknown state dependency"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.WithDetail("layout depends on style")
	if got, want := err.Error(), "E002: Unknown state dependency: layout depends on style"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &Error{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestWrapAndCode(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("E001").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should see the wrapped cause")
	}

	outer := fmt.Errorf("building engine: %w", err)
	if got := Code(outer); got != "E001" {
		t.Errorf("Code() = %q, want E001", got)
	}
	if got := Code(cause); got != "" {
		t.Errorf("Code() = %q, want empty", got)
	}

	if FromError(err, "E120") != err {
		t.Error("FromError should return an existing *Error unchanged")
	}
	if FromError(nil, "E120") != nil {
		t.Error("FromError(nil) should be nil")
	}
	if got := FromError(cause, "E120"); got.Code != "E120" || got.Wrapped != cause {
		t.Errorf("FromError() = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E001").
		WithSubjects("layout", "style").
		WithDetail("layout -> style -> layout").
		WithSuggestion("Drop one of the declared dependencies")

	out := err.Format()
	for _, want := range []string{
		"ERROR E001: Dependency cycle between states",
		"layout, style",
		"layout -> style -> layout",
		"Hint: Drop one of the declared dependencies",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() should not contain ANSI codes when colors are disabled")
	}

	if got, want := err.FormatCompact(), "E001: Dependency cycle between states (layout, style)"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E003").WithSubjects("size").Wrap(stderrors.New("twice"))

	var got map[string]any
	if e := json.Unmarshal([]byte(err.FormatJSON()), &got); e != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v", e)
	}
	if got["code"] != "E003" || got["category"] != "construction" || got["cause"] != "twice" {
		t.Errorf("FormatJSON() = %v", got)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("wrapped: %w", New("E121")))
	if !strings.Contains(buf.String(), "ERROR E121") {
		t.Errorf("Fprint() = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, stderrors.New("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("Fprint() = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  int
	}{
		{"", 10, 0},
		{"short", 10, 1},
		{"one two three four five", 9, 3},
	}
	for _, tt := range tests {
		if got := wrapText(tt.text, tt.width); len(got) != tt.want {
			t.Errorf("wrapText(%q, %d) = %v, want %d lines", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestRegistryComplete(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%q) missing", code)
		}
		if tmpl.Category == "" || tmpl.Message == "" || tmpl.Detail == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
	}
}
