package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcus/roster/internal/models"
)

const (
	highWaterKey = "id_high_water"

	// markChunkSize keeps IN lists under SQLite's bound-parameter limit.
	markChunkSize = 500

	timestampFormat = time.RFC3339Nano
)

const personColumns = `id, first_name, last_name, document_id, phone_number, email, created_at, is_synchronized`

// AllocateID returns the next person ID: one past the highest ID that exists
// or has ever existed. It is read from storage on every call.
func (db *DB) AllocateID(ctx context.Context) (int64, error) {
	id, err := allocateID(ctx, db.conn)
	return id, persistErr("allocate id", err)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func allocateID(ctx context.Context, q queryRower) (int64, error) {
	var maxID, highWater int64
	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE((SELECT MAX(id) FROM people), 0),
			COALESCE((SELECT value FROM store_meta WHERE key = ?), 0)
	`, highWaterKey).Scan(&maxID, &highWater)
	if err != nil {
		return 0, err
	}
	if highWater > maxID {
		maxID = highWater
	}
	return maxID + 1, nil
}

// InsertPerson stores a validated contact as a new pending record and
// returns it with its assigned ID and creation time.
func (db *DB) InsertPerson(ctx context.Context, c models.Contact) (*models.Person, error) {
	p := &models.Person{
		Contact:   c,
		CreatedAt: time.Now().UTC(),
	}

	err := db.withTx(ctx, opInsert, func(tx *sql.Tx) error {
		id, err := allocateID(ctx, tx)
		if err != nil {
			return err
		}
		p.ID = id

		_, err = tx.ExecContext(ctx, `
			INSERT INTO people (`+personColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		`, p.ID, c.FirstName, c.LastName, c.DocumentID, c.PhoneNumber, c.Email,
			p.CreatedAt.Format(timestampFormat))
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO store_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = MAX(value, excluded.value)
		`, highWaterKey, p.ID)
		return err
	})
	if err != nil {
		return nil, persistErr("insert person", err)
	}
	return p, nil
}

// GetPerson retrieves a person by ID. Unknown and purged IDs return
// ErrNotFound.
func (db *DB) GetPerson(ctx context.Context, id int64) (*models.Person, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, persistErr("get person", err)
	}
	return p, nil
}

// ListPending returns all records not yet accepted by the remote sink.
func (db *DB) ListPending(ctx context.Context) ([]models.Person, error) {
	people, err := db.listBySync(ctx, false)
	return people, persistErr("list pending", err)
}

// ListSynchronized returns all records confirmed by the remote sink.
func (db *DB) ListSynchronized(ctx context.Context) ([]models.Person, error) {
	people, err := db.listBySync(ctx, true)
	return people, persistErr("list synchronized", err)
}

// ListPeople returns every record regardless of state.
func (db *DB) ListPeople(ctx context.Context) ([]models.Person, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+personColumns+` FROM people ORDER BY id`)
	if err != nil {
		return nil, persistErr("list people", err)
	}
	people, err := scanPeople(rows)
	return people, persistErr("list people", err)
}

func (db *DB) listBySync(ctx context.Context, synced bool) ([]models.Person, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+personColumns+` FROM people WHERE is_synchronized = ? ORDER BY id`,
		boolToInt(synced))
	if err != nil {
		return nil, err
	}
	return scanPeople(rows)
}

// MarkSynchronized flags exactly the given IDs as synchronized in a single
// transaction. Unknown IDs are ignored and already-synchronized records are
// left untouched, so repeating a call is harmless. Returns the number of
// records that changed state.
func (db *DB) MarkSynchronized(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var marked int64
	err := db.withTx(ctx, opMark, func(tx *sql.Tx) error {
		for start := 0; start < len(ids); start += markChunkSize {
			end := min(start+markChunkSize, len(ids))
			chunk := ids[start:end]

			args := make([]any, len(chunk))
			for i, id := range chunk {
				args[i] = id
			}
			res, err := tx.ExecContext(ctx, `
				UPDATE people SET is_synchronized = 1
				WHERE is_synchronized = 0 AND id IN (`+placeholders(len(chunk))+`)
			`, args...)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			marked += n
		}
		return nil
	})
	if err != nil {
		return 0, persistErr("mark synchronized", err)
	}
	return marked, nil
}

// DeleteSynchronized removes every synchronized record and returns how many
// were removed. Zero means there was nothing to delete. Pending records are
// never touched.
func (db *DB) DeleteSynchronized(ctx context.Context) (int64, error) {
	var deleted int64
	err := db.withTx(ctx, opPurge, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM people WHERE is_synchronized = 1`)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, persistErr("delete synchronized", err)
	}
	return deleted, nil
}

// CountPending returns the number of records awaiting sync.
func (db *DB) CountPending(ctx context.Context) (int64, error) {
	n, err := db.countBySync(ctx, false)
	return n, persistErr("count pending", err)
}

// CountSynchronized returns the number of synchronized records still stored.
func (db *DB) CountSynchronized(ctx context.Context) (int64, error) {
	n, err := db.countBySync(ctx, true)
	return n, persistErr("count synchronized", err)
}

// Counts returns the pending and synchronized counts from one statement, so
// a record being marked is never counted in both.
func (db *DB) Counts(ctx context.Context) (pending, synchronized int64, err error) {
	err = db.conn.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(is_synchronized = 0), 0),
			COALESCE(SUM(is_synchronized = 1), 0)
		FROM people
	`).Scan(&pending, &synchronized)
	if err != nil {
		return 0, 0, persistErr("count people", err)
	}
	return pending, synchronized, nil
}

func (db *DB) countBySync(ctx context.Context, synced bool) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM people WHERE is_synchronized = ?`, boolToInt(synced),
	).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*models.Person, error) {
	var (
		p       models.Person
		created string
		synced  int
	)
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DocumentID, &p.PhoneNumber, &p.Email, &created, &synced)
	if err != nil {
		return nil, err
	}
	p.CreatedAt, err = time.Parse(timestampFormat, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for id %d: %w", p.ID, err)
	}
	p.IsSynchronized = synced != 0
	return &p, nil
}

func scanPeople(rows *sql.Rows) ([]models.Person, error) {
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
