package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteArchive is the sqlite-backed Archive implementation.
type SqliteArchive struct {
	dbPath string

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteArchive creates an archive backed by the database at dbPath.
// The connection is opened and the schema initialized lazily on first use.
func NewSqliteArchive(dbPath string) *SqliteArchive {
	return &SqliteArchive{dbPath: dbPath}
}

func (s *SqliteArchive) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.dbErr = fmt.Errorf("opening database: %w", err)
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.db = db
	})

	return s.db, s.dbErr
}

func (s *SqliteArchive) CreateSession(ctx context.Context, mode, instrument string) (sessionID int64, err error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, mode, instrument)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

func (s *SqliteArchive) StoreSample(ctx context.Context, sessionID int64, rec SampleRecord) (err error) {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, insertSampleSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if _, err = stmt.ExecContext(
		ctx,
		sessionID,
		rec.Timestamp.UTC(),
		rec.Power,
		rec.Bearing,
		rec.Latitude,
		rec.Longitude,
	); err != nil {
		return fmt.Errorf("inserting sample: %w", err)
	}
	return nil
}

func (s *SqliteArchive) StoreSweepSample(ctx context.Context, sessionID int64, rec SweepRecord) (err error) {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, insertSweepSampleSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if _, err = stmt.ExecContext(ctx, sessionID, rec.Timestamp.UTC(), rec.Bearing, rec.Power); err != nil {
		return fmt.Errorf("inserting sweep sample: %w", err)
	}
	return nil
}

func (s *SqliteArchive) Close() error {
	s.closeOnce.Do(func() {
		if s.db != nil {
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
