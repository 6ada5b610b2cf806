package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
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
			name:    "scan error",
			code:    "E100",
			wantMsg: "Pages directory unreadable",
			wantCat: CategoryScan,
		},
		{
			name:    "route table error",
			code:    "E103",
			wantMsg: "Duplicate layout",
			wantCat: CategoryRoutes,
		},
		{
			name:    "module error",
			code:    "E110",
			wantMsg: "Unknown virtual module",
			wantCat: CategoryModule,
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
	err := Newf(CategoryCLI, "file %q not found", "chen.json")
	if err.Message != `file "chen.json" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"code only", New("E105"), "E105: Duplicate route segment"},
		{"no code", &Error{Message: "test error"}, "test error"},
		{"with file", New("E103").WithFile("pages/_layout.tsx"), "E103: Duplicate layout (pages/_layout.tsx)"},
		{"with cause", New("E100").Wrap(fs.ErrPermission), "E100: Pages directory unreadable: permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_UnwrapAndIs(t *testing.T) {
	err := fmt.Errorf("scan: %w", New("E100").Wrap(fs.ErrPermission))

	if !stderrors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if !stderrors.Is(err, New("E100")) {
		t.Error("errors.Is should match on error code")
	}
	if stderrors.Is(err, New("E103")) {
		t.Error("errors.Is should not match a different code")
	}

	var ce *Error
	if !stderrors.As(err, &ce) {
		t.Fatal("errors.As should find *Error")
	}
	if ce.Code != "E100" {
		t.Errorf("Code = %q, want E100", ce.Code)
	}
}

func TestHasCode(t *testing.T) {
	inner := New("E105")
	outer := New("E130").Wrap(fmt.Errorf("bundle: %w", inner))

	if !HasCode(outer, "E130") {
		t.Error("HasCode should match the outer code")
	}
	if !HasCode(outer, "E105") {
		t.Error("HasCode should match a wrapped code")
	}
	if HasCode(outer, "E100") {
		t.Error("HasCode should not match an absent code")
	}
	if HasCode(nil, "E100") {
		t.Error("HasCode(nil) should be false")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E100") != nil {
		t.Error("FromError(nil) should return nil")
	}

	original := New("E103")
	if got := FromError(fmt.Errorf("wrapped: %w", original), "E100"); got != original {
		t.Error("FromError should return an existing *Error unchanged")
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "E120")
	if got.Code != "E120" {
		t.Errorf("Code = %q, want E120", got.Code)
	}
	if got.Wrapped != plain {
		t.Error("FromError should wrap the plain error")
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  *Location
		want string
	}{
		{nil, ""},
		{&Location{File: "pages/index.tsx"}, "pages/index.tsx"},
		{&Location{File: "chen.json", Line: 3}, "chen.json:3"},
	}

	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	err := New("E103").
		WithFile("src/pages/_Layout.tsx").
		WithSuggestion("Keep a single _layout file per directory")

	out := err.Format()
	for _, want := range []string{
		"E103",
		"Duplicate layout",
		"src/pages/_Layout.tsx",
		"only one _layout file",
		"Keep a single _layout file per directory",
		"https://chen.dev/docs/errors/E103",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E105").WithFile("src/pages/about.jsx")
	want := "src/pages/about.jsx: E105: Duplicate route segment"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E104").WithFile("src/pages/_404.tsx").WithSuggestion("remove one")

	var decoded map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v", jerr)
	}
	if decoded["code"] != "E104" {
		t.Errorf("code = %v, want E104", decoded["code"])
	}
	loc, ok := decoded["location"].(map[string]any)
	if !ok || loc["file"] != "src/pages/_404.tsx" {
		t.Errorf("location = %v", decoded["location"])
	}
	if _, ok := loc["line"]; ok {
		t.Error("line should be omitted when unknown")
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("load: %w", New("E110")))
	if !strings.Contains(buf.String(), "Unknown virtual module") {
		t.Errorf("Fprint() = %q, want registered message", buf.String())
	}

	buf.Reset()
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("Fprint() = %q, want plain message", buf.String())
	}
}

func TestRegistryComplete(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%q) not found", code)
		}
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
		if !strings.HasSuffix(tmpl.DocURL, code) {
			t.Errorf("%s: DocURL %q does not end with code", code, tmpl.DocURL)
		}
	}
}

func TestRegister(t *testing.T) {
	Register("E199", ErrorTemplate{Category: CategoryCLI, Message: "Custom"})
	defer delete(registry, "E199")

	if got := New("E199").Message; got != "Custom" {
		t.Errorf("Message = %q, want Custom", got)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, line := range lines {
		if len(line) > 10 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}
