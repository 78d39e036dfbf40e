package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config invalid: %s: %s", e.Field, e.Message)
}

// Validate rejects a config before any filesystem mutation happens.
func Validate(cfg Config) error {
	if cfg.TargetFolder == "" {
		return ValidationError{Field: "target_folder", Message: "missing"}
	}
	if cfg.ArchiveFolder == "" {
		return ValidationError{Field: "archive_folder", Message: "missing"}
	}
	if cfg.ArchiveNameFormat == "" {
		return ValidationError{Field: "archive_name_format", Message: "missing"}
	}
	if !strings.Contains(cfg.ArchiveNameFormat, "{date}") {
		return ValidationError{Field: "archive_name_format", Message: "must contain the {date} placeholder"}
	}
	if err := requireOneOf("compression_algorithm", cfg.CompressionAlgorithm, []string{"lzma", "bzip2", "zstd"}); err != nil {
		return err
	}
	if cfg.CompressionLevel < 1 || cfg.CompressionLevel > 9 {
		return ValidationError{Field: "compression_level", Message: "must be in [1..9]"}
	}
	if err := requireOneOf("archive_mode", cfg.ArchiveMode, []string{"overwrite", "append"}); err != nil {
		return err
	}
	if err := requirePositiveInt("max_workers", cfg.MaxWorkers); err != nil {
		return err
	}
	if err := requirePositiveInt("chunk_size", cfg.ChunkSize); err != nil {
		return err
	}
	if cfg.SaveLogs {
		if cfg.LogFolder == "" {
			return ValidationError{Field: "log_folder", Message: "missing"}
		}
		if err := requirePositiveInt("max_log_files", cfg.MaxLogFiles); err != nil {
			return err
		}
	}
	if err := requireOneOf("log_level", cfg.LogLevel, []string{"debug", "info", "warn", "error"}); err != nil {
		return err
	}
	return nil
}

func requirePositiveInt(field string, v int) error {
	if v <= 0 {
		return ValidationError{Field: field, Message: "must be > 0"}
	}
	return nil
}

func requireOneOf(field string, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return ValidationError{Field: field, Message: fmt.Sprintf("must be one of %s", strings.Join(allowed, "|"))}
}
