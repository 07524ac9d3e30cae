package export

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"codesurvey/internal/survey"
)

// Backend names accepted in the EXPORT_BACKENDS list.
const (
	BackendLocal   = "local"
	BackendRemote  = "remote"
	BackendArchive = "archive"
)

// Backends is the set of enabled export capabilities.
type Backends struct {
	Local   bool
	Remote  bool
	Archive bool
}

// ParseBackends reads a comma separated list such as "local,remote".
func ParseBackends(s string) (Backends, error) {
	var b Backends
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case BackendLocal:
			b.Local = true
		case BackendRemote:
			b.Remote = true
		case BackendArchive:
			b.Archive = true
		default:
			return Backends{}, fmt.Errorf("unknown export backend %q", name)
		}
	}
	return b, nil
}

// Archiver stores a finished session's CSV.
type Archiver interface {
	PutCSV(ctx context.Context, key string, data []byte) (string, error)
}

// Exporter fans records out to the enabled backends. Its failures are
// returned as warnings; the session store stays the source of truth.
type Exporter struct {
	backends  Backends
	forwarder Forwarder
	archive   Archiver
	log       *zap.Logger
}

func NewExporter(b Backends, f Forwarder, a Archiver, log *zap.Logger) *Exporter {
	if f == nil {
		b.Remote = false
	}
	if a == nil {
		b.Archive = false
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{backends: b, forwarder: f, archive: a, log: log}
}

// LocalEnabled reports whether CSV downloads are offered.
func (e *Exporter) LocalEnabled() bool {
	return e.backends.Local
}

// RecordCreated forwards one freshly created record.
func (e *Exporter) RecordCreated(ctx context.Context, sessionID string, rec survey.Record) []string {
	if !e.backends.Remote {
		return nil
	}
	if err := e.forwarder.Forward(ctx, sessionID, rec); err != nil {
		e.log.Warn("forward response failed",
			zap.String("session_id", sessionID),
			zap.Int("trial", rec.Trial),
			zap.Error(err))
		return []string{fmt.Sprintf("could not send trial %d to the results store: %v", rec.Trial, err)}
	}
	return nil
}

// SessionDone archives the full log of a finished session.
func (e *Exporter) SessionDone(ctx context.Context, sessionID string, records []survey.Record) []string {
	if !e.backends.Archive {
		return nil
	}
	data, err := CSV(records)
	if err == nil {
		var ref string
		ref, err = e.archive.PutCSV(ctx, ArchiveKey(sessionID), data)
		if err == nil {
			e.log.Info("archived results", zap.String("session_id", sessionID), zap.String("ref", ref))
			return nil
		}
	}
	e.log.Warn("archive results failed", zap.String("session_id", sessionID), zap.Error(err))
	return []string{fmt.Sprintf("could not archive results: %v", err)}
}

func ArchiveKey(sessionID string) string {
	return "results/" + sessionID + ".csv"
}
