// Package journal writes the append-only audit trail: decision-stage events,
// per-leg execution events, and the orders/positions journals. Writes are
// best-effort by design; a logging failure must never abort a trade decision,
// so every method swallows I/O errors after a console notice.
package journal

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// logsDirEnv overrides the journal base directory (mainly for tests).
const logsDirEnv = "LOGS_DIR"

// Journal owns the audit-trail files under a single base directory.
type Journal struct {
	dir string
	log zerolog.Logger
	now func() time.Time
}

// New creates a journal rooted at dir (LOGS_DIR env wins, then "logs").
func New(dir string, log zerolog.Logger) *Journal {
	if env := os.Getenv(logsDirEnv); env != "" {
		dir = env
	}
	if dir == "" {
		dir = "logs"
	}
	return &Journal{
		dir: dir,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Dir returns the journal base directory.
func (j *Journal) Dir() string { return j.dir }

// appendJSONL appends one JSON object per line to path. A single write call
// carries the full record plus newline, so concurrent readers never observe a
// partial record.
func (j *Journal) appendJSONL(path string, v interface{}) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("journal dir create failed, dropping record")
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("journal marshal failed, dropping record")
		return
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("journal open failed, dropping record")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("journal write failed")
	}
}

// appendCSV appends one row to path, writing the fixed header first when the
// file does not exist yet.
func (j *Journal) appendCSV(path string, header, row []string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("journal dir create failed, dropping row")
		return
	}

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("journal open failed, dropping row")
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			j.log.Warn().Err(err).Str("path", path).Msg("csv header write failed")
			return
		}
	}
	if err := w.Write(row); err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("csv row write failed")
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("csv flush failed")
	}
}

// dayFile returns <dir>/<sub>/<date>_<suffix>.jsonl for the given timestamp.
func (j *Journal) dayFile(sub, suffix string, ts time.Time) string {
	name := ts.UTC().Format("2006-01-02") + "_" + suffix + ".jsonl"
	return filepath.Join(j.dir, sub, name)
}
