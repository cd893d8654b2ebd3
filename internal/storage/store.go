// Package storage persists simulation runs and equivalence reports in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/spikesim/internal/equiv"
	"github.com/san-kum/spikesim/internal/snn"

	_ "modernc.org/sqlite" // SQLite driver
)

const dbName = "spikesim.db"

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	db     *sql.DB
	dbPath string
}

// RunMetadata describes one stored run. Groups is filled by LoadRun and ListRuns.
type RunMetadata struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Backend    string        `json:"backend"`
	Seed       int64         `json:"seed"`
	Seconds    int           `json:"seconds"`
	Rate       float64       `json:"rate"`
	Elapsed    time.Duration `json:"elapsed"`
	CreatedAt  time.Time     `json:"created_at"`
	ConfigYAML string        `json:"-"`
	Groups     []GroupMeta   `json:"groups"`
}

type GroupMeta struct {
	Name  string `json:"name"`
	ID    int    `json:"id"`
	Size  int    `json:"size"`
	Total int64  `json:"total"`
}

func (m *RunMetadata) TotalSpikes() int64 {
	var n int64
	for _, g := range m.Groups {
		n += g.Total
	}
	return n
}

// Open creates dir if needed and opens the database inside it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dir, dbName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

func (s *Store) Path() string { return s.dbPath }

func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores the metadata and per-neuron counts of one run and returns its id.
func (s *Store) SaveRun(ctx context.Context, meta RunMetadata, out *equiv.RunOutput) (int64, error) {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}
	if out.Result != nil && meta.Elapsed == 0 {
		meta.Elapsed = out.Result.Elapsed
	}
	if meta.Backend == "" {
		meta.Backend = out.Backend
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (name, backend, seed, seconds, rate, elapsed_ns, created_at, config_yaml)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.Name, meta.Backend, meta.Seed, meta.Seconds, meta.Rate,
		int64(meta.Elapsed), meta.CreatedAt.UTC().Format(time.RFC3339Nano), meta.ConfigYAML)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	countStmt, err := tx.PrepareContext(ctx, `INSERT INTO counts (run_id, group_name, neuron, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer countStmt.Close()

	for pos, g := range out.Groups {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_groups (run_id, position, name, group_id, size, total)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, pos, g.Ref.Name, g.Ref.ID, len(g.Spikes), g.Total); err != nil {
			return 0, fmt.Errorf("failed to insert group %s: %w", g.Ref.Name, err)
		}
		for neuron, c := range g.Spikes {
			if _, err := countStmt.ExecContext(ctx, id, g.Ref.Name, neuron, c); err != nil {
				return 0, fmt.Errorf("failed to insert counts for %s: %w", g.Ref.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns every stored run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, backend, seed, seconds, rate, elapsed_ns, created_at, config_yaml
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if runs[i].Groups, err = s.loadGroups(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) LoadRun(ctx context.Context, id int64) (*RunMetadata, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, backend, seed, seconds, rate, elapsed_ns, created_at, config_yaml
		FROM runs WHERE id = ?`, id)
	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if meta.Groups, err = s.loadGroups(ctx, id); err != nil {
		return nil, err
	}
	return meta, nil
}

// LoadCounts rebuilds the per-group counts of a run. The result carries no
// raster or trace, so comparisons against it cannot locate divergences in time.
func (s *Store) LoadCounts(ctx context.Context, id int64) (*equiv.RunOutput, error) {
	meta, err := s.LoadRun(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &equiv.RunOutput{Backend: meta.Backend}
	index := make(map[string]int, len(meta.Groups))
	for i, g := range meta.Groups {
		index[g.Name] = i
		out.Groups = append(out.Groups, equiv.GroupOutput{
			Ref:    snn.GroupRef{ID: g.ID, Name: g.Name, Size: g.Size},
			Spikes: make([]int, g.Size),
			Total:  g.Total,
		})
	}

	rows, err := s.db.QueryContext(ctx, `SELECT group_name, neuron, count FROM counts WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name          string
			neuron, count int
		)
		if err := rows.Scan(&name, &neuron, &count); err != nil {
			return nil, err
		}
		i, ok := index[name]
		if !ok || neuron < 0 || neuron >= len(out.Groups[i].Spikes) {
			return nil, fmt.Errorf("storage: run %d: stray count row %s[%d]", id, name, neuron)
		}
		out.Groups[i].Spikes[neuron] = count
	}
	return out, rows.Err()
}

// SaveReport stores a comparison outcome. Run ids of zero are stored as NULL.
func (s *Store) SaveReport(ctx context.Context, runA, runB int64, report *equiv.Report) (int64, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (run_a, run_b, equivalent, summary_json, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		nullID(runA), nullID(runB), report.Equivalent(), string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) LoadReport(ctx context.Context, id int64) (*equiv.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT summary_json FROM reports WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: report %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	var report equiv.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %d: %w", id, err)
	}
	return &report, nil
}

// ExportCSV writes a run's counts as group,neuron,count rows.
func (s *Store) ExportCSV(ctx context.Context, id int64, w io.Writer) error {
	out, err := s.LoadCounts(ctx, id)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"group", "neuron", "count"}); err != nil {
		return err
	}
	for _, g := range out.Groups {
		for neuron, c := range g.Spikes {
			if err := cw.Write([]string{g.Ref.Name, strconv.Itoa(neuron), strconv.Itoa(c)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Store) loadGroups(ctx context.Context, id int64) ([]GroupMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, group_id, size, total FROM run_groups WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []GroupMeta
	for rows.Next() {
		var g GroupMeta
		if err := rows.Scan(&g.Name, &g.ID, &g.Size, &g.Total); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*RunMetadata, error) {
	var (
		meta      RunMetadata
		elapsed   int64
		createdAt string
		cfg       sql.NullString
	)
	if err := sc.Scan(&meta.ID, &meta.Name, &meta.Backend, &meta.Seed, &meta.Seconds, &meta.Rate,
		&elapsed, &createdAt, &cfg); err != nil {
		return nil, err
	}
	meta.Elapsed = time.Duration(elapsed)
	meta.ConfigYAML = cfg.String
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("run %d: bad created_at %q: %w", meta.ID, createdAt, err)
	}
	meta.CreatedAt = t
	return &meta, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
