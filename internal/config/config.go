package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrCreated is returned by Load when no config file existed and a default
// one was written in its place. The caller is expected to ask the user to
// fill in the folders and exit without running.
var ErrCreated = errors.New("default config created")

type Config struct {
	TargetFolder         string   `yaml:"target_folder"`
	ArchiveFolder        string   `yaml:"archive_folder"`
	ArchiveNameFormat    string   `yaml:"archive_name_format"`
	CompressionAlgorithm string   `yaml:"compression_algorithm"`
	CompressionLevel     int      `yaml:"compression_level"`
	ArchiveMode          string   `yaml:"archive_mode"`
	MaxWorkers           int      `yaml:"max_workers"`
	ChunkSize            int      `yaml:"chunk_size"`
	LogFolder            string   `yaml:"log_folder"`
	MaxLogFiles          int      `yaml:"max_log_files"`
	LogLevel             string   `yaml:"log_level"`
	SaveLogs             bool     `yaml:"save_logs"`
	ExcludePatterns      []string `yaml:"exclude_patterns"`
}

func Default() Config {
	return Config{
		TargetFolder:         "",
		ArchiveFolder:        "",
		ArchiveNameFormat:    "{date}_archive.zip",
		CompressionAlgorithm: "bzip2",
		CompressionLevel:     9,
		ArchiveMode:          "overwrite",
		MaxWorkers:           1,
		ChunkSize:            8192,
		LogFolder:            "logs",
		MaxLogFiles:          15,
		LogLevel:             "info",
		SaveLogs:             true,
		ExcludePatterns:      nil,
	}
}

// Load reads the YAML config at path. Keys missing from the file keep their
// default values. If the file does not exist, a default one is written and
// ErrCreated is returned alongside the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if werr := Save(cfg, path); werr != nil {
				return Config{}, werr
			}
			return cfg, ErrCreated
		}
		return Config{}, fmt.Errorf("config read failed: %w", err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	return cfg, nil
}

func Save(cfg Config, path string) error {
	buf, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config marshal failed: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("config write failed: %w", err)
	}
	return nil
}
