package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"grimm.is/burrow/internal/clock"
	"grimm.is/burrow/internal/logging"
)

// History subscribes to the hub and persists events to SQLite so
// operators can reconstruct what changed and when, across daemon
// restarts. Writes are buffered to keep IOPS low; a janitor prunes
// rows past the retention window.
type History struct {
	db  *sql.DB
	hub *Hub
	log *logging.Logger

	buffer   []Event
	bufferMu sync.Mutex

	cfg    HistoryConfig
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// HistoryConfig configures the event history store.
type HistoryConfig struct {
	// FlushInterval is how often buffered events are written (default 10s).
	FlushInterval time.Duration

	// JanitorInterval is how often old rows are pruned (default 1h).
	JanitorInterval time.Duration

	// Retention is how long events are kept (default 7 days).
	Retention time.Duration
}

// DefaultHistoryConfig returns sensible defaults.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		FlushInterval:   10 * time.Second,
		JanitorInterval: 1 * time.Hour,
		Retention:       7 * 24 * time.Hour,
	}
}

// StoredEvent is one row of the history table.
type StoredEvent struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewHistory creates a history store on db and initializes its schema.
func NewHistory(db *sql.DB, hub *Hub, cfg HistoryConfig) (*History, error) {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultHistoryConfig().FlushInterval
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = DefaultHistoryConfig().JanitorInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultHistoryConfig().Retention
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &History{
		db:     db,
		hub:    hub,
		log:    logging.WithComponent("history"),
		buffer: make([]Event, 0, 256),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := h.initSchema(); err != nil {
		cancel()
		return nil, err
	}
	return h, nil
}

func (h *History) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		ts     INTEGER NOT NULL,
		type   TEXT NOT NULL,
		source TEXT NOT NULL,
		data   TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type, ts);
	`
	if _, err := h.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize event schema: %w", err)
	}
	return nil
}

// Start subscribes to the hub and begins the flush and janitor loops.
func (h *History) Start() {
	ch := h.hub.Subscribe(1024)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.hub.Unsubscribe(ch)

		flush := time.NewTicker(h.cfg.FlushInterval)
		janitor := time.NewTicker(h.cfg.JanitorInterval)
		defer flush.Stop()
		defer janitor.Stop()

		for {
			select {
			case <-h.ctx.Done():
				return
			case e := <-ch:
				h.bufferMu.Lock()
				h.buffer = append(h.buffer, e)
				h.bufferMu.Unlock()
			case <-flush.C:
				h.flush()
			case <-janitor.C:
				h.prune()
			}
		}
	}()
}

// Stop flushes pending events and halts the loops.
func (h *History) Stop() {
	h.cancel()
	h.wg.Wait()
	h.flush()
}

// flush writes buffered events in one transaction.
func (h *History) flush() {
	h.bufferMu.Lock()
	batch := h.buffer
	h.buffer = make([]Event, 0, 256)
	h.bufferMu.Unlock()

	if len(batch) == 0 {
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		h.log.Error("history flush failed", "error", err)
		return
	}
	stmt, err := tx.Prepare("INSERT INTO events (ts, type, source, data) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		h.log.Error("history flush failed", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		data, err := json.Marshal(e.Data)
		if err != nil {
			data = nil
		}
		if _, err := stmt.Exec(e.Timestamp.UnixMilli(), string(e.Type), e.Source, string(data)); err != nil {
			tx.Rollback()
			h.log.Error("history insert failed", "error", err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		h.log.Error("history commit failed", "error", err)
	}
}

// prune deletes rows past the retention window.
func (h *History) prune() {
	cutoff := clock.Now().Add(-h.cfg.Retention).UnixMilli()
	res, err := h.db.Exec("DELETE FROM events WHERE ts < ?", cutoff)
	if err != nil {
		h.log.Error("history prune failed", "error", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		h.log.Debug("pruned event history", "rows", n)
	}
}

// Query returns events at or after since, newest first, up to limit.
func (h *History) Query(since time.Time, limit int) ([]StoredEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	// Serve recent events from storage; anything still buffered is
	// flushed first so callers see their own writes.
	h.flush()

	rows, err := h.db.Query(
		"SELECT id, ts, type, source, data FROM events WHERE ts >= ? ORDER BY ts DESC, id DESC LIMIT ?",
		since.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query event history: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var (
			ev   StoredEvent
			ts   int64
			data sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.Type, &ev.Source, &data); err != nil {
			return nil, err
		}
		ev.Timestamp = time.UnixMilli(ts)
		if data.Valid && data.String != "" && data.String != "null" {
			ev.Data = json.RawMessage(data.String)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
