package trace

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/libtouch/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrSessionNotFound is returned when a session ID has no stored trace.
var ErrSessionNotFound = errors.New("trace session not found")

// Session is the metadata of one stored trace.
type Session struct {
	ID          uuid.UUID
	Name        string
	Source      string
	RecordCount int
	CreatedAt   time.Time
}

// Store keeps traces and their replayed frames in SQLite.
type Store struct {
	*sql.DB
}

// OpenStore opens (creating if needed) the SQLite database at path and
// migrates it to the latest schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace store: %w", err)
	}
	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// MigrateUp runs all pending migrations up to the latest version.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Not closing m: that would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current schema version and dirty state.
func (s *Store) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger on top of monitoring.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Debugf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool {
	return false
}

// SaveSession stores records under a new session and returns its ID.
func (s *Store) SaveSession(name, source string, records []Record) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := s.Begin()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO sessions (session_id, name, source, record_count) VALUES (?, ?, ?, ?)`,
		id.String(), name, source, len(records),
	); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO records (session_id, seq, kind, ts, axis, amount, predict_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		var predict sql.NullFloat64
		if rec.PredictMs != nil {
			predict = sql.NullFloat64{Float64: *rec.PredictMs, Valid: true}
		}
		if _, err := stmt.Exec(id.String(), i, rec.Kind, int64(rec.Timestamp), rec.Axis, rec.Amount, predict); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit session: %w", err)
	}
	return id, nil
}

// LoadSession returns the records of a stored session in their original
// order.
func (s *Store) LoadSession(id uuid.UUID) ([]Record, error) {
	if _, err := s.Session(id); err != nil {
		return nil, err
	}

	rows, err := s.Query(
		`SELECT kind, ts, axis, amount, predict_ms FROM records WHERE session_id = ? ORDER BY seq`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			ts      int64
			axis    sql.NullString
			amount  sql.NullInt64
			predict sql.NullFloat64
		)
		if err := rows.Scan(&rec.Kind, &ts, &axis, &amount, &predict); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Timestamp = uint64(ts)
		rec.Axis = axis.String
		rec.Amount = int32(amount.Int64)
		if predict.Valid {
			p := predict.Float64
			rec.PredictMs = &p
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// Session returns the metadata for id.
func (s *Store) Session(id uuid.UUID) (Session, error) {
	row := s.QueryRow(
		`SELECT session_id, name, source, record_count, created_at FROM sessions WHERE session_id = ?`,
		id.String(),
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, err
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions() ([]Session, error) {
	rows, err := s.Query(
		`SELECT session_id, name, source, record_count, created_at FROM sessions ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session, its records and its frames.
func (s *Store) DeleteSession(id uuid.UUID) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// SQLite leaves foreign_keys off, so children are removed explicitly.
	for _, table := range []string{"frames", "records"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE session_id = ?`, id.String()); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	res, err := tx.Exec(`DELETE FROM sessions WHERE session_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return tx.Commit()
}

// SaveFrames replaces the replayed frames stored for a session.
func (s *Store) SaveFrames(id uuid.UUID, frames []FrameResult) error {
	if _, err := s.Session(id); err != nil {
		return err
	}

	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM frames WHERE session_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to clear frames: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO frames (session_id, seq, ts, x, y, velocity_x, velocity_y, overshoot_x, overshoot_y, animating)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare frame insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range frames {
		if _, err := stmt.Exec(id.String(), i, int64(f.Timestamp), f.X, f.Y,
			f.VelocityX, f.VelocityY, f.OvershootX, f.OvershootY, f.Animating); err != nil {
			return fmt.Errorf("failed to insert frame %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit frames: %w", err)
	}
	return nil
}

// LoadFrames returns the stored frames for a session in order.
func (s *Store) LoadFrames(id uuid.UUID) ([]FrameResult, error) {
	rows, err := s.Query(`
		SELECT ts, x, y, velocity_x, velocity_y, overshoot_x, overshoot_y, animating
		FROM frames WHERE session_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []FrameResult
	for rows.Next() {
		var f FrameResult
		var ts int64
		if err := rows.Scan(&ts, &f.X, &f.Y, &f.VelocityX, &f.VelocityY, &f.OvershootX, &f.OvershootY, &f.Animating); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		f.Timestamp = uint64(ts)
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate frames: %w", err)
	}
	return frames, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		sess    Session
		id      string
		created sql.NullString
	)
	if err := row.Scan(&id, &sess.Name, &sess.Source, &sess.RecordCount, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("failed to scan session: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Session{}, fmt.Errorf("invalid session id %q: %w", id, err)
	}
	sess.ID = parsed
	sess.CreatedAt = parseCreatedAt(created.String)
	return sess, nil
}

// parseCreatedAt accepts both the CURRENT_TIMESTAMP text form and the
// RFC 3339 form the driver produces for TIMESTAMP columns.
func parseCreatedAt(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
