package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyFile        = "file"
	KeySources     = "sources"
	KeyFingerprint = "fingerprint"
	KeySnapshot    = "snapshot_id"
	KeyClients     = "clients"
	KeySubject     = "subject"
	KeyAddr        = "addr"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

func File(p string) slog.Attr         { return slog.String(KeyFile, p) }
func Sources(s []string) slog.Attr    { return slog.Any(KeySources, s) }
func Fingerprint(fp string) slog.Attr { return slog.String(KeyFingerprint, short(fp)) }
func Snapshot(id string) slog.Attr    { return slog.String(KeySnapshot, id) }
func Clients(n int) slog.Attr         { return slog.Int(KeyClients, n) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// short truncates a fingerprint to its first twelve hex characters.
func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
