package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if be, ok := err.(*BlogError); ok {
		return a.exitCodeFromBlogError(be)
	}

	return 1
}

// exitCodeFromBlogError maps BlogError categories to exit codes.
func (a *CLIErrorAdapter) exitCodeFromBlogError(err *BlogError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage / validation failure
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryTheme:
		return 9 // Theme error
	case CategoryParse, CategoryRender, CategoryGeneration, CategoryFileSystem:
		return 11 // Build error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if be, ok := err.(*BlogError); ok {
		return a.formatBlogError(be)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatBlogError keeps terse user-facing messages for user-input categories
// and prefixes the category for build-side failures so the cause class is
// obvious without the verbose chain.
func (a *CLIErrorAdapter) formatBlogError(err *BlogError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation, CategoryTheme:
		if err.Cause != nil {
			return fmt.Sprintf("%s: %v", err.Message, err.Cause)
		}
		return err.Message
	default:
		if err.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", err.Category, err.Message, err.Cause)
		}
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with the appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should additionally go to the structured log.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if be, ok := err.(*BlogError); ok {
		return be.Category == CategoryInternal || be.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if be, ok := err.(*BlogError); ok {
		attrs := []slog.Attr{
			slog.String("category", string(be.Category)),
		}
		a.logger.LogAttrs(context.Background(), a.slogLevel(be.Severity), be.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevel converts BlogError severity to slog level.
func (a *CLIErrorAdapter) slogLevel(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal, SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
