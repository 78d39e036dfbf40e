package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/logsweep/logsweep/internal/config"
	"github.com/logsweep/logsweep/internal/history"
	"github.com/logsweep/logsweep/internal/observability"
	"github.com/logsweep/logsweep/internal/run"
)

type flags struct {
	configPath  string
	target      string
	archiveDir  string
	name        string
	compression string
	level       int
	mode        string
	workers     int
	saveLogs    string
}

func parseFlags() (flags, map[string]bool) {
	var f flags
	flag.StringVar(&f.configPath, "config", "logsweep.yaml", "config file path")
	flag.StringVar(&f.target, "target", "", "source log directory")
	flag.StringVar(&f.target, "t", "", "source log directory (shorthand)")
	flag.StringVar(&f.archiveDir, "archive", "", "archive output directory")
	flag.StringVar(&f.archiveDir, "a", "", "archive output directory (shorthand)")
	flag.StringVar(&f.name, "name", "", "archive filename template, must contain {date}")
	flag.StringVar(&f.name, "n", "", "archive filename template (shorthand)")
	flag.StringVar(&f.compression, "compression", "", "compression algorithm: lzma|bzip2|zstd")
	flag.StringVar(&f.compression, "c", "", "compression algorithm (shorthand)")
	flag.IntVar(&f.level, "level", 0, "compression level 1-9")
	flag.IntVar(&f.level, "l", 0, "compression level (shorthand)")
	flag.StringVar(&f.mode, "mode", "", "archive mode: overwrite|append")
	flag.StringVar(&f.mode, "m", "", "archive mode (shorthand)")
	flag.IntVar(&f.workers, "workers", 0, "worker count")
	flag.IntVar(&f.workers, "w", 0, "worker count (shorthand)")
	flag.StringVar(&f.saveLogs, "save-logs", "", "write program logs to disk: true|false")
	flag.StringVar(&f.saveLogs, "L", "", "write program logs to disk (shorthand)")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set
}

// applyOverrides layers explicitly passed flags over the persisted config
// for this run only; the file on disk is never rewritten.
func applyOverrides(cfg config.Config, f flags, set map[string]bool) config.Config {
	if set["target"] || set["t"] {
		cfg.TargetFolder = f.target
	}
	if set["archive"] || set["a"] {
		cfg.ArchiveFolder = f.archiveDir
	}
	if set["name"] || set["n"] {
		cfg.ArchiveNameFormat = f.name
	}
	if set["compression"] || set["c"] {
		cfg.CompressionAlgorithm = f.compression
	}
	if set["level"] || set["l"] {
		cfg.CompressionLevel = f.level
	}
	if set["mode"] || set["m"] {
		cfg.ArchiveMode = f.mode
	}
	if set["workers"] || set["w"] {
		cfg.MaxWorkers = f.workers
	}
	if set["save-logs"] || set["L"] {
		cfg.SaveLogs = f.saveLogs == "true"
	}
	return cfg
}

func main() {
	f, set := parseFlags()

	cfg, err := config.Load(f.configPath)
	if errors.Is(err, config.ErrCreated) {
		fmt.Fprintf(os.Stderr, "created default config at %s\n", f.configPath)
		fmt.Fprintln(os.Stderr, "set target_folder and archive_folder, then run again")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	cfg = applyOverrides(cfg, f, set)
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	logger := observability.NewFromConfig(cfg)
	defer func() {
		_ = logger.Close()
	}()

	var hist *history.Store
	hist, err = history.Open(filepath.Join(cfg.ArchiveFolder, "logsweep.db"))
	if err != nil {
		logger.Warnf("run history unavailable: %v", err)
		hist = nil
	} else {
		defer func() {
			_ = hist.Close()
		}()
	}

	pipeline, err := run.New(cfg, logger, nil, hist, nil)
	if err != nil {
		log.Fatalf("pipeline init failed: %v", err)
	}

	report, err := pipeline.Run(context.Background())
	if err != nil {
		logger.Errorf("run %s aborted: %v", report.RunID, err)
		os.Exit(1)
	}
}
