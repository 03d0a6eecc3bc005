package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig checks every section of c.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}
	errs = append(errs, validateEditor(&c.Editor)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateStorage(&c.Storage)...)
	errs = append(errs, validateKeymap(c.Keymap)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEditor(e *EditorConfig) ValidationErrors {
	var errs ValidationErrors
	if e.HistoryStackSize < 0 {
		errs = append(errs, ValidationError{Field: "editor.history_stack_size", Message: "must not be negative"})
	}
	switch e.Platform {
	case "linux", "mac", "windows":
	default:
		errs = append(errs, ValidationError{
			Field:   "editor.platform",
			Message: fmt.Sprintf("unknown platform %q (expected linux, mac or windows)", e.Platform),
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", l.Level)})
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", l.Format)})
	}
	switch strings.ToLower(l.Output) {
	case "stdout", "stderr", "discard":
	case "file":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{Field: "logging.file_path", Message: "required when output is file"})
		}
	default:
		errs = append(errs, ValidationError{Field: "logging.output", Message: fmt.Sprintf("unknown output %q", l.Output)})
	}
	return errs
}

func validateStorage(s *StorageConfig) ValidationErrors {
	var errs ValidationErrors
	switch s.Type {
	case "memory":
	case "fs", "sqlite":
		if s.Path == "" {
			errs = append(errs, ValidationError{Field: "storage.path", Message: "required for " + s.Type + " storage"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.type",
			Message: fmt.Sprintf("unknown storage type %q (expected memory, fs or sqlite)", s.Type),
		})
	}
	if s.DocID == "" || strings.ContainsAny(s.DocID, `/\`) || s.DocID == "." || s.DocID == ".." {
		errs = append(errs, ValidationError{Field: "storage.doc_id", Message: fmt.Sprintf("invalid document id %q", s.DocID)})
	}
	return errs
}

func validateKeymap(keymap map[string]string) ValidationErrors {
	var errs ValidationErrors
	for chord, command := range keymap {
		if _, err := ParseChord(chord); err != nil {
			errs = append(errs, ValidationError{Field: "keymap." + chord, Message: err.Error()})
		}
		if command == "" {
			errs = append(errs, ValidationError{Field: "keymap." + chord, Message: "empty command"})
		}
	}
	return errs
}
