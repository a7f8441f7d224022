// Package audit keeps the append-only operator event log. It is a flat
// text file next to the database: one pipe-delimited line per event,
// greppable by hand, rotated only when a backup is taken.
package audit

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/storage"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

// Outcome of an audited operation
type Outcome string

const (
	Success Outcome = "Success"
	Failure Outcome = "Failure"
)

// Event type constants
const (
	EventLogin              = "login"
	EventLedgerRecord       = "ledger_record"
	EventLedgerUpdate       = "ledger_update"
	EventLedgerDelete       = "ledger_delete"
	EventInstallmentCreate  = "installment_create"
	EventInstallmentPayment = "installment_payment"
	EventInstallmentDelete  = "installment_delete"
	EventInstallmentRefresh = "installment_refresh"
	EventInvoiceCreate      = "invoice_create"
	EventInvoiceRender      = "invoice_render"
	EventBackupCreate       = "backup_create"
	EventBackupRestore      = "backup_restore"
	EventBackupDelete       = "backup_delete"
	EventUserCreate         = "user_create"
	EventUserUpdate         = "user_update"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	separator  = " | "
	fieldCount = 6
)

// Event is one line of the trail
type Event struct {
	Time        time.Time `json:"timestamp"`
	ActorID     uint      `json:"actor_id"`
	ActorName   string    `json:"actor_name"`
	Type        string    `json:"event_type"`
	Description string    `json:"description"`
	Outcome     Outcome   `json:"outcome"`
}

// Line renders the event in the on-disk format
func (e Event) Line() string {
	return strings.Join([]string{
		e.Time.Format(timeLayout),
		strconv.FormatUint(uint64(e.ActorID), 10),
		sanitize(e.ActorName),
		sanitize(e.Type),
		sanitize(e.Description),
		string(e.Outcome),
	}, separator)
}

// Filter narrows Read; zero values match everything
type Filter struct {
	EventType  string
	ActorID    *uint
	From       time.Time
	To         time.Time
	FailedOnly bool
	Limit      int
}

func (f Filter) matches(e Event) bool {
	if f.EventType != "" && e.Type != f.EventType {
		return false
	}
	if f.ActorID != nil && e.ActorID != *f.ActorID {
		return false
	}
	if !f.From.IsZero() && e.Time.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Time.After(f.To) {
		return false
	}
	if f.FailedOnly && e.Outcome != Failure {
		return false
	}
	return true
}

// Trail is the live audit log. Appends are serialized; rotation and
// replacement swap the file under the same lock.
type Trail struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewTrail opens (or creates) the trail at path
func NewTrail(path string) (*Trail, error) {
	t := &Trail{path: path, now: time.Now}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := t.writeHeader(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Path is the live trail file
func (t *Trail) Path() string {
	return t.path
}

// Log appends one event
func (t *Trail) Log(ctx context.Context, e Event) error {
	if e.Time.IsZero() {
		e.Time = t.now()
	}
	if e.Outcome == "" {
		e.Outcome = Success
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit trail: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(e.Line() + "\n"); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// Record logs an operation's outcome: Failure with the error text when
// opErr is set, Success otherwise. A trail write failure is reported to
// the process log and never fails the operation itself.
func (t *Trail) Record(ctx context.Context, actor models.Actor, eventType, description string, opErr error) {
	e := Event{
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		Type:        eventType,
		Description: description,
		Outcome:     Success,
	}
	if opErr != nil {
		e.Outcome = Failure
		e.Description = description + ": " + opErr.Error()
	}
	if err := t.Log(ctx, e); err != nil {
		logger.Warn("Audit trail write failed", "event", eventType, "error", err)
	}
}

// Read returns matching events, newest first
func (t *Trail) Read(filter Filter) ([]Event, error) {
	t.mu.Lock()
	events, err := ReadFile(t.path)
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Walk backwards so events logged within the same second keep
	// newest-first order through the stable sort.
	out := make([]Event, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		if filter.matches(events[i]) {
			out = append(out, events[i])
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Rotate moves the live trail to dst and starts a fresh one
func (t *Trail) Rotate(dst string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := storage.MoveFile(t.path, dst); err != nil {
		return fmt.Errorf("failed to rotate audit trail: %w", err)
	}
	return t.writeHeader()
}

// Snapshot copies the live trail to dst without rotating it
func (t *Trail) Snapshot(dst string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return storage.CopyFile(t.path, dst)
}

// ReplaceWith overwrites the live trail with the contents of src
func (t *Trail) ReplaceWith(src string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := storage.CopyFile(src, t.path); err != nil {
		return fmt.Errorf("failed to restore audit trail: %w", err)
	}
	return nil
}

func (t *Trail) writeHeader() error {
	header := fmt.Sprintf("# new log created at %s\n", t.now().Format(timeLayout))
	if err := os.WriteFile(t.path, []byte(header), 0644); err != nil {
		return fmt.Errorf("failed to create audit trail: %w", err)
	}
	return nil
}

// ReadFile parses every event line of a trail file, skipping headers
// and lines that do not parse.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, ok := parseLine(line)
		if !ok {
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit trail: %w", err)
	}
	return events, nil
}

// CountEntries counts the non-empty, non-header lines of a trail file
func CountEntries(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			n++
		}
	}
	return n, scanner.Err()
}

func parseLine(line string) (Event, bool) {
	parts := strings.SplitN(line, separator, fieldCount)
	if len(parts) != fieldCount {
		return Event{}, false
	}
	ts, err := time.ParseInLocation(timeLayout, parts[0], time.Local)
	if err != nil {
		return Event{}, false
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Event{}, false
	}
	return Event{
		Time:        ts,
		ActorID:     uint(id),
		ActorName:   parts[2],
		Type:        parts[3],
		Description: parts[4],
		Outcome:     Outcome(parts[5]),
	}, true
}

var sanitizer = strings.NewReplacer("|", "/", "\r", " ", "\n", " ")

func sanitize(s string) string {
	return sanitizer.Replace(s)
}
