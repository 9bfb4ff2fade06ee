package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/ardanlabs/cjbindgen/config"
	"github.com/ardanlabs/cjbindgen/generator"
)

func TestGenerateGolden(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		pkg    string
		golden string
	}{
		{"header", "testdata/basic.h", "clang_cj", "testdata/out/basic.cj"},
		{"points header", "testdata/points.h", "points", "testdata/out/points.cj"},
		{"points dump", "testdata/points.yaml", "points", "testdata/out/points.cj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Package = tt.pkg
			out := filepath.Join(t.TempDir(), "out.cj")

			if err := generate(cfg, tt.input, out, false); err != nil {
				t.Fatalf("generate: %v", err)
			}

			got, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			want, err := os.ReadFile(tt.golden)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(string(want), string(got)); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerateStrictKeepsOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.cj")
	if err := os.WriteFile(out, []byte("previous\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Strict = true
	err := generate(cfg, "testdata/basic.h", out, false)

	var unsupported *generator.UnsupportedCTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("got %v, want an unsupported type error", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous\n" {
		t.Errorf("failed run replaced the output with:\n%s", got)
	}
	assertNoTempFiles(t, filepath.Dir(out))
}

func TestGenerateMissingInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.cj")
	if err := generate(config.Default(), "testdata/missing.h", out, false); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output created for a failed run: %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.cj")

	for _, content := range []string{"first\n", "second\n"} {
		if err := writeFile(path, []byte(content)); err != nil {
			t.Fatalf("writeFile: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("got %q, want %q", got, content)
		}
	}
	assertNoTempFiles(t, dir)

	if err := writeFile(filepath.Join(dir, "missing", "x.cj"), []byte("x")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.cj")
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("package = \"my-lib\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no arguments", nil, 1},
		{"one argument", []string{"testdata/points.h"}, 1},
		{"three arguments", []string{"testdata/points.h", out, "extra"}, 1},
		{"unknown flag", []string{"--nope", "testdata/points.h", out}, 1},
		{"help", []string{"--help"}, 0},
		{"invalid config", []string{"--config", bad, "testdata/points.h", out}, 1},
		{"invalid package flag", []string{"--package", "my-lib", "testdata/points.h", out}, 1},
		{"strict failure", []string{"--strict", "testdata/basic.h", out}, 1},
		{"success", []string{"--package", "points", "testdata/points.h", out}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%q) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want, err := os.ReadFile("testdata/out/points.cj")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".cjbindgen-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}
