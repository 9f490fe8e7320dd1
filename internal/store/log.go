package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rdo34/fuel/internal/model"
)

// LogKey is the slot holding the serialized entry collection.
const LogKey = "fuelLogs"

// Log persists the whole fuel log as one JSON array under LogKey.
type Log struct {
	kv     KV
	logger *slog.Logger
}

func NewLog(kv KV, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{kv: kv, logger: logger.With("component", "log")}
}

// Load returns the persisted collection. A missing, unreadable or corrupt
// slot yields an empty collection; the cause is logged, not returned.
// Array elements that are not entry objects are skipped.
func (l *Log) Load() []model.Entry {
	b, err := l.kv.Get(LogKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.logger.Warn("read fuel log failed; starting empty", "error", err)
		}
		return []model.Entry{}
	}
	var records []json.RawMessage
	if err := json.Unmarshal(b, &records); err != nil {
		l.logger.Warn("fuel log is not a valid entry array; starting empty", "error", err, "bytes", len(b))
		return []model.Entry{}
	}
	entries := make([]model.Entry, 0, len(records))
	for i, rec := range records {
		rec = bytes.TrimSpace(rec)
		if len(rec) == 0 || rec[0] != '{' {
			l.logger.Warn("skipping fuel log element that is not an object", "index", i)
			continue
		}
		var e model.Entry
		if err := json.Unmarshal(rec, &e); err != nil {
			l.logger.Warn("skipping malformed fuel log record", "index", i, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// Save overwrites the slot with the full collection.
func (l *Log) Save(entries []model.Entry) error {
	if entries == nil {
		entries = []model.Entry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode fuel log: %w", err)
	}
	if err := l.kv.Set(LogKey, b); err != nil {
		return fmt.Errorf("write fuel log: %w", err)
	}
	l.logger.Debug("fuel log saved", "entries", len(entries), "bytes", len(b))
	return nil
}

// Upsert replaces the entry with e.ID in place, or appends e.
// The returned slice does not alias entries.
func Upsert(entries []model.Entry, e model.Entry) []model.Entry {
	out := append([]model.Entry(nil), entries...)
	if i := model.Index(out, e.ID); i >= 0 {
		out[i] = e
		return out
	}
	return append(out, e)
}

// Remove drops the entry with id; a missing id leaves the collection as is.
func Remove(entries []model.Entry, id string) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}
