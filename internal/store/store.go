// Package store persists completed sweep digests in a local sqlite database
// so that digests survive the acquisition process and later sessions can
// re-align or re-export them.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lockin.report/internal/sweep"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const timeLayout = time.RFC3339Nano

// Store wraps the sweep database.
type Store struct {
	*sql.DB
}

// Open opens (creating if necessary) the sweep database at path and brings
// its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrateUp runs all pending embedded migrations.
// Returns nil if no migrations were needed (already at latest version).
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(s.DB, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Note: We don't close m here because it would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SweepRecord is the stored metadata of one digest.
type SweepRecord struct {
	ID          string
	RunID       string
	Role        sweep.Role
	Label       string
	Harmonic    int
	Sensitivity int
	CreatedAt   time.Time
}

// SaveDigest writes a digest and all of its cells in one transaction. The
// runID groups the sweeps of one measurement session. NaN cells (no valid
// samples) are stored as NULL.
func (s *Store) SaveDigest(runID uuid.UUID, role sweep.Role, d *sweep.Digest) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sweeps (id, run_id, role, label, harmonic, sensitivity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, runID.String(), string(role), d.Label, d.Harmonic, d.Sensitivity,
		d.CreatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert sweep %s: %w", d.ID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sweep_cells (sweep_id, freq_idx, ampl_idx, freq, ampl, mean_x, mean_y, var_x, var_y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for j, freq := range d.Freqs {
		for i, ampl := range d.Ampls {
			_, err := stmt.Exec(d.ID, j, i, freq, ampl,
				nullable(d.MeanX[j][i]), nullable(d.MeanY[j][i]),
				nullable(d.VarX[j][i]), nullable(d.VarY[j][i]))
			if err != nil {
				return fmt.Errorf("failed to insert cell (%g Hz, %g V) of sweep %s: %w",
					freq, ampl, d.ID, err)
			}
		}
	}

	return tx.Commit()
}

// ListSweeps returns the stored sweep metadata, most recent first.
func (s *Store) ListSweeps() ([]SweepRecord, error) {
	rows, err := s.Query(`
		SELECT id, run_id, role, label, harmonic, sensitivity, created_at
		FROM sweeps ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SweepRecord
	for rows.Next() {
		var r SweepRecord
		var role, createdAt string
		if err := rows.Scan(&r.ID, &r.RunID, &role, &r.Label, &r.Harmonic, &r.Sensitivity, &createdAt); err != nil {
			return nil, err
		}
		r.Role = sweep.Role(role)
		r.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("malformed created_at for sweep %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadDigest reconstructs a stored digest, grids and tables included. NULL
// cells come back as NaN.
func (s *Store) LoadDigest(id string) (*sweep.Digest, error) {
	d := &sweep.Digest{ID: id}

	var role, createdAt string
	err := s.QueryRow(`
		SELECT role, label, harmonic, sensitivity, created_at
		FROM sweeps WHERE id = ?`, id).
		Scan(&role, &d.Label, &d.Harmonic, &d.Sensitivity, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no stored sweep with id %q", id)
	}
	if err != nil {
		return nil, err
	}
	d.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("malformed created_at for sweep %s: %w", id, err)
	}

	rows, err := s.Query(`
		SELECT freq_idx, ampl_idx, freq, ampl, mean_x, mean_y, var_x, var_y
		FROM sweep_cells WHERE sweep_id = ?
		ORDER BY freq_idx, ampl_idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type cell struct {
		fi, ai                 int
		freq, ampl             float64
		mx, my, vx, vy         sql.NullFloat64
	}
	var cells []cell
	maxFreq, maxAmpl := -1, -1
	for rows.Next() {
		var c cell
		if err := rows.Scan(&c.fi, &c.ai, &c.freq, &c.ampl, &c.mx, &c.my, &c.vx, &c.vy); err != nil {
			return nil, err
		}
		if c.fi > maxFreq {
			maxFreq = c.fi
		}
		if c.ai > maxAmpl {
			maxAmpl = c.ai
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("stored sweep %q has no cells", id)
	}

	n, m := maxFreq+1, maxAmpl+1
	d.Freqs = make([]float64, n)
	d.Ampls = make([]float64, m)
	d.MeanX = emptyTable(n, m)
	d.MeanY = emptyTable(n, m)
	d.VarX = emptyTable(n, m)
	d.VarY = emptyTable(n, m)

	for _, c := range cells {
		d.Freqs[c.fi] = c.freq
		d.Ampls[c.ai] = c.ampl
		d.MeanX[c.fi][c.ai] = fromNullable(c.mx)
		d.MeanY[c.fi][c.ai] = fromNullable(c.my)
		d.VarX[c.fi][c.ai] = fromNullable(c.vx)
		d.VarY[c.fi][c.ai] = fromNullable(c.vy)
	}
	return d, nil
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func emptyTable(rows, cols int) [][]float64 {
	t := make([][]float64, rows)
	for i := range t {
		t[i] = make([]float64, cols)
	}
	return t
}
