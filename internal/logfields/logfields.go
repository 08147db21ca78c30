// Package logfields declares canonical log field name constants so attribute
// keys do not drift between packages.
package logfields

import "log/slog"

const (
	KeyPath       = "path"
	KeyFile       = "file"
	KeyStage      = "stage"
	KeyTag        = "tag"
	KeyTemplate   = "template"
	KeyOutput     = "output"
	KeyCount      = "count"
	KeyPage       = "page"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Output(dir string) slog.Attr     { return slog.String(KeyOutput, dir) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Page(n int) slog.Attr            { return slog.Int(KeyPage, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
