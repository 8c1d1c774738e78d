// patchwork CLI - runs the patching demo and inspects the mutation journal
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/patchwork/manifest"
)

func main() {
	configDir := flag.String("config", ".", "Directory to search (upwards) for patchwork.toml")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: patchwork [options] <command>\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  demo      Patch a small class hierarchy and print what each call returns\n")
		fmt.Fprintf(os.Stderr, "  journal   List recorded registry mutations\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Verbosity += 2
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogPath())

	switch flag.Arg(0) {
	case "demo":
		err = runDemo(os.Stdout, cfg)
	case "journal":
		err = listJournal(os.Stdout, cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig finds patchwork.toml above dir, falling back to defaults rooted at dir
func loadConfig(dir string) (*manifest.Manifest, error) {
	cfg, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	cfg = manifest.Default()
	if cfg.Dir, err = filepath.Abs(dir); err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return cfg, nil
}
