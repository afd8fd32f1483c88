package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyRow        = "row"
	KeySlug       = "slug"
	KeyTitle      = "title"
	KeyPath       = "path"
	KeyInput      = "input"
	KeyOutput     = "output"
	KeyTopology   = "topology"
	KeyCount      = "count"
	KeyReason     = "reason"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Row(n int) slog.Attr             { return slog.Int(KeyRow, n) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Title(s string) slog.Attr        { return slog.String(KeyTitle, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Input(p string) slog.Attr        { return slog.String(KeyInput, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Topology(t string) slog.Attr     { return slog.String(KeyTopology, t) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
