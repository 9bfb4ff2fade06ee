package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/ardanlabs/cjbindgen/config"
	"github.com/ardanlabs/cjbindgen/generator"
	"github.com/ardanlabs/cjbindgen/parser"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line args and returns the process exit code.
func run(args []string) int {
	fs := pflag.NewFlagSet("cjbindgen", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a TOML configuration file")
	packageName := fs.String("package", "", "Cangjie package name (default clang_cj)")
	strict := fs.Bool("strict", false, "Fail instead of emitting placeholders for untranslatable declarations")
	dumpAST := fs.Bool("dump-ast", false, "Print the parsed declarations to stderr")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input.h|input.yaml> <output.cj>\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}

	fs.AddGoFlagSet(flag.CommandLine)
	if f := flag.Lookup("logtostderr"); f != nil {
		f.DefValue = "true"
		f.Value.Set("true")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	// glog complains about logging before flag.Parse otherwise.
	flag.CommandLine.Parse([]string{})
	defer glog.Flush()

	if fs.NArg() != 2 {
		fs.Usage()
		return 1
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return fail(err)
		}
	}
	if fs.Changed("package") {
		cfg.Package = *packageName
	}
	if fs.Changed("strict") {
		cfg.Strict = *strict
	}
	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	if err := generate(cfg, fs.Arg(0), fs.Arg(1), *dumpAST); err != nil {
		return fail(err)
	}
	pterm.Success.Println("Successfully generated bindings")
	return 0
}

func fail(err error) int {
	glog.Flush()
	fmt.Fprintln(os.Stderr, pterm.Error.Sprintf("Error generating bindings: %v", err))
	return 1
}

// generate reads the input, translates it and writes the output file. The
// output is only replaced once the whole translation succeeded.
func generate(cfg *config.Config, input, output string, dumpAST bool) error {
	header, err := load(input)
	if err != nil {
		return err
	}
	if dumpAST {
		fmt.Fprintf(os.Stderr, "%# v\n", pretty.Formatter(header))
	}

	gen := generator.New(generator.Options{
		Package:        cfg.Package,
		Strict:         cfg.Strict,
		ReservedSuffix: cfg.ReservedSuffix,
		Skip:           cfg.Skip,
	}, header)

	res, err := gen.Generate()
	if err != nil {
		return err
	}
	if n := len(res.Diagnostics); n > 0 {
		glog.Warningf("%d declarations were replaced by placeholders", n)
	}

	return writeFile(output, []byte(res.Source))
}

func load(input string) (*parser.Header, error) {
	switch strings.ToLower(filepath.Ext(input)) {
	case ".yaml", ".yml":
		return parser.LoadYAML(input)
	}
	return parser.ParseFile(input)
}

func writeFile(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".cjbindgen-*")
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
