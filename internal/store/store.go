// Package store owns the per-technician record collections and their
// persistence into the key-value dictionary. Every mutating operation
// validates first, then writes through before returning; the dictionary
// is never left ahead of or behind the in-memory state on success.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"installerpro/internal/core"
	"installerpro/internal/kv"
)

const (
	// technicianKey is the global (not period-scoped) key holding the
	// generated technician identifier.
	technicianKey = "tecnico_id"

	// dataKeyPrefix scopes a technician's working blob.
	dataKeyPrefix = "controle_"

	// historyKeyPrefix scopes archived period snapshots.
	historyKeyPrefix = "historico_"
)

const (
	// RolloverArchival snapshots the working set under a history key
	// before clearing it.
	RolloverArchival RolloverMode = "archival"
	// RolloverDestructive clears the working set outright; archival is
	// the caller's responsibility, if any.
	RolloverDestructive RolloverMode = "destructive"
)

type (
	RolloverMode string

	// Options fixes the deployment's validation and rollover policies.
	Options struct {
		CodePolicy        core.CodePolicy
		RequireClientName bool
		Rollover          RolloverMode
	}

	// ChangePublisher receives a notification after every successful
	// mutation. A nil publisher disables the feed; publish failures are
	// logged and never fail the operation.
	ChangePublisher interface {
		PublishChange(ctx context.Context, kind, recordID string) error
	}

	// Store is the record store. Safe for use from a single goroutine
	// per the interaction model; the mutex guards the HTTP layer's
	// concurrent reads.
	Store struct {
		mu        sync.Mutex
		kv        kv.Store
		publisher ChangePublisher
		opts      Options

		tech          core.Technician
		installations []core.Installation
		fuel          []core.FuelExpense
		lastID        int64
	}
)

// IsValid reports whether the mode is a known one.
func (m RolloverMode) IsValid() bool {
	return m == RolloverArchival || m == RolloverDestructive
}

// blob is the persisted state layout, one JSON document per technician.
type blob struct {
	TechnicianID   string            `json:"technicianId"`
	TechnicianName string            `json:"technicianName,omitempty"`
	Installations  []installationRec `json:"installations"`
	FuelExpenses   []fuelRec         `json:"fuelExpenses"`
}

type installationRec struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	ClientName string `json:"clientName,omitempty"`
	Date       string `json:"date"`
}

type fuelRec struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	AmountCents int64  `json:"amountCents"`
	Note        string `json:"note,omitempty"`
}

// Open reads or creates the technician identity, then loads the working
// set. A corrupt or missing blob yields empty collections, never an
// error: the store must always be able to start.
func Open(ctx context.Context, dict kv.Store, opts Options, publisher ChangePublisher) (*Store, error) {
	if !opts.CodePolicy.IsValid() {
		opts.CodePolicy = core.CodeStrict
	}
	if !opts.Rollover.IsValid() {
		opts.Rollover = RolloverArchival
	}

	s := &Store{kv: dict, publisher: publisher, opts: opts}

	techID, err := s.getOrCreateTechnicianID(ctx)
	if err != nil {
		return nil, fmt.Errorf("technician identity: %w", err)
	}
	s.tech.ID = techID

	s.load(ctx)
	return s, nil
}

// getOrCreateTechnicianID returns the persisted identifier, generating
// and persisting a fresh one on first run. Idempotent across restarts.
func (s *Store) getOrCreateTechnicianID(ctx context.Context) (string, error) {
	id, ok, err := s.kv.Get(ctx, technicianKey)
	if err != nil {
		return "", fmt.Errorf("read technician key: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}

	id = newTechnicianID()
	if err := s.kv.Set(ctx, technicianKey, id); err != nil {
		return "", fmt.Errorf("persist technician key: %w", err)
	}
	slog.InfoContext(ctx, "Generated technician identity", "technician_id", id)
	return id, nil
}

func newTechnicianID() string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TEC-" + token[:8]
}

func (s *Store) dataKey() string {
	return dataKeyPrefix + s.tech.ID
}

func (s *Store) historyKey(period string) string {
	return historyKeyPrefix + s.tech.ID + "_" + period
}

// load reads the technician's blob into memory. Absent or unparsable
// blobs degrade to empty collections.
func (s *Store) load(ctx context.Context) {
	s.installations = nil
	s.fuel = nil
	s.tech.Name = ""

	raw, ok, err := s.kv.Get(ctx, s.dataKey())
	if err != nil {
		slog.WarnContext(ctx, "Failed reading stored blob, starting empty", "error", err)
		return
	}
	if !ok {
		return
	}

	var b blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		slog.WarnContext(ctx, "Stored blob is not valid JSON, starting empty",
			"key", s.dataKey(), "error", err)
		return
	}

	s.tech.Name = b.TechnicianName
	for _, rec := range b.Installations {
		inst, err := rec.toDomain()
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed installation record", "id", rec.ID, "error", err)
			continue
		}
		s.installations = append(s.installations, inst)
		s.trackID(rec.ID)
	}
	for _, rec := range b.FuelExpenses {
		f, err := rec.toDomain()
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed fuel record", "id", rec.ID, "error", err)
			continue
		}
		s.fuel = append(s.fuel, f)
		s.trackID(rec.ID)
	}
}

func (r installationRec) toDomain() (core.Installation, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Installation{}, err
	}
	return core.Installation{ID: r.ID, Code: r.Code, ClientName: r.ClientName, Date: d}, nil
}

func (r fuelRec) toDomain() (core.FuelExpense, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.FuelExpense{}, err
	}
	return core.FuelExpense{ID: r.ID, Date: d, Amount: core.Money{Cents: r.AmountCents}, Note: r.Note}, nil
}

// save serializes both collections plus the technician identity into
// one blob under the technician-scoped key.
func (s *Store) save(ctx context.Context) error {
	b := blob{
		TechnicianID:   s.tech.ID,
		TechnicianName: s.tech.Name,
		Installations:  make([]installationRec, 0, len(s.installations)),
		FuelExpenses:   make([]fuelRec, 0, len(s.fuel)),
	}
	for _, inst := range s.installations {
		b.Installations = append(b.Installations, installationRec{
			ID: inst.ID, Code: inst.Code, ClientName: inst.ClientName, Date: inst.Date.ISO(),
		})
	}
	for _, f := range s.fuel {
		b.FuelExpenses = append(b.FuelExpenses, fuelRec{
			ID: f.ID, Date: f.Date.ISO(), AmountCents: f.Amount.Cents, Note: f.Note,
		})
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal blob: %w", err)
	}
	if err := s.kv.Set(ctx, s.dataKey(), string(raw)); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

func (s *Store) trackID(id string) {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > s.lastID {
		s.lastID = n
	}
}

// nextID returns a millisecond timestamp identifier, bumped past the
// last issued one so same-process creations never collide.
func (s *Store) nextID() string {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// Technician returns the stored identity.
func (s *Store) Technician() core.Technician {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tech
}

// SetTechnicianName updates the display name and persists it.
func (s *Store) SetTechnicianName(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tech.Name = strings.TrimSpace(name)
	if err := s.save(ctx); err != nil {
		return fmt.Errorf("save technician name: %w", err)
	}
	return nil
}

// Installations returns a copy of the working set.
func (s *Store) Installations() []core.Installation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Installation, len(s.installations))
	copy(out, s.installations)
	return out
}

// FuelExpenses returns a copy of the working set.
func (s *Store) FuelExpenses() []core.FuelExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.FuelExpense, len(s.fuel))
	copy(out, s.fuel)
	return out
}

// AddInstallation validates the candidate, assigns an identifier,
// appends and persists. The dictionary is untouched when validation
// fails.
func (s *Store) AddInstallation(ctx context.Context, cand core.Installation) (core.Installation, error) {
	if err := cand.Validate(s.opts.CodePolicy, s.opts.RequireClientName); err != nil {
		return core.Installation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cand.ID = s.nextID()
	s.installations = append(s.installations, cand)
	if err := s.save(ctx); err != nil {
		s.installations = s.installations[:len(s.installations)-1]
		return core.Installation{}, fmt.Errorf("save installation: %w", err)
	}

	slog.InfoContext(ctx, "Installation saved",
		"id", cand.ID, "code", cand.Code, "date", cand.Date.ISO())
	s.publish(ctx, "installation_added", cand.ID)
	return cand, nil
}

// DeleteInstallation removes by identifier. Unknown identifiers are a
// silent no-op, so retried deletes cannot fail.
func (s *Store) DeleteInstallation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, inst := range s.installations {
		if inst.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	removed := s.installations[idx]
	s.installations = append(s.installations[:idx], s.installations[idx+1:]...)
	if err := s.save(ctx); err != nil {
		return fmt.Errorf("save after delete: %w", err)
	}

	slog.InfoContext(ctx, "Installation deleted", "id", id, "date", removed.Date.ISO())
	s.publish(ctx, "installation_deleted", id)
	return nil
}

// AddFuelExpense validates, assigns an identifier, appends and persists.
func (s *Store) AddFuelExpense(ctx context.Context, cand core.FuelExpense) (core.FuelExpense, error) {
	if err := cand.Validate(); err != nil {
		return core.FuelExpense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cand.ID = s.nextID()
	s.fuel = append(s.fuel, cand)
	if err := s.save(ctx); err != nil {
		s.fuel = s.fuel[:len(s.fuel)-1]
		return core.FuelExpense{}, fmt.Errorf("save fuel expense: %w", err)
	}

	slog.InfoContext(ctx, "Fuel expense saved",
		"id", cand.ID, "amount_cents", cand.Amount.Cents, "date", cand.Date.ISO())
	s.publish(ctx, "fuel_added", cand.ID)
	return cand, nil
}

// DeleteFuelExpense removes by identifier; absent identifiers no-op.
func (s *Store) DeleteFuelExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, f := range s.fuel {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	s.fuel = append(s.fuel[:idx], s.fuel[idx+1:]...)
	if err := s.save(ctx); err != nil {
		return fmt.Errorf("save after delete: %w", err)
	}

	slog.InfoContext(ctx, "Fuel expense deleted", "id", id)
	s.publish(ctx, "fuel_deleted", id)
	return nil
}

// Rollover closes out the current period. Archival mode snapshots the
// working blob under a history key first; destructive mode just clears.
// Always irreversible; the confirmation step lives with the caller.
func (s *Store) Rollover(ctx context.Context, period string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Rollover == RolloverArchival && (len(s.installations) > 0 || len(s.fuel) > 0) {
		raw, ok, err := s.kv.Get(ctx, s.dataKey())
		if err != nil {
			return fmt.Errorf("read blob for archive: %w", err)
		}
		if ok {
			if err := s.kv.Set(ctx, s.historyKey(period), raw); err != nil {
				return fmt.Errorf("archive period %s: %w", period, err)
			}
			slog.InfoContext(ctx, "Period archived", "period", period, "key", s.historyKey(period))
		}
	}

	s.installations = nil
	s.fuel = nil
	if err := s.save(ctx); err != nil {
		return fmt.Errorf("save after rollover: %w", err)
	}

	slog.InfoContext(ctx, "Rollover complete", "period", period, "mode", string(s.opts.Rollover))
	s.publish(ctx, "rollover", period)
	return nil
}

// ExportAll dumps the entire underlying dictionary, every key included,
// not just this technician's scope.
func (s *Store) ExportAll(ctx context.Context) (map[string]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	dump := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := s.kv.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("read key %s: %w", k, err)
		}
		if ok {
			dump[k] = v
		}
	}
	return dump, nil
}

// ImportAll replaces the whole dictionary with the given entries, then
// reloads the in-memory collections from the restored store. The
// technician identity follows the backup if it carries one.
func (s *Store) ImportAll(ctx context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Replace(ctx, entries); err != nil {
		return fmt.Errorf("replace dictionary: %w", err)
	}

	if id, ok := entries[technicianKey]; ok && id != "" {
		s.tech.ID = id
	}
	s.load(ctx)

	slog.InfoContext(ctx, "Backup restored",
		"keys", len(entries),
		"installations", len(s.installations),
		"fuel_expenses", len(s.fuel))
	s.publish(ctx, "restore", s.tech.ID)
	return nil
}

// Reload re-reads the working set from the dictionary.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
}

func (s *Store) publish(ctx context.Context, kind, recordID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, kind, recordID); err != nil {
		// The record is already persisted; a lost event only delays the
		// next snapshot backup.
		slog.WarnContext(ctx, "Failed to publish change event",
			"kind", kind, "record_id", recordID, "error", err)
	}
}
