package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB is a read-only SQLite mirror of the ledger, rebuilt from the TSV
// source of truth so the curation history can be queried with SQL.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the mirror database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger mirror: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating mirror schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS pubs (
			key TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT,
			doi TEXT,
			year INTEGER,
			journal TEXT,
			state TEXT NOT NULL,
			first_seen TEXT,
			entry_date TEXT,
			annotation TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_pubs_doi ON pubs(doi) WHERE doi != '';
		CREATE INDEX IF NOT EXISTS idx_pubs_state ON pubs(state);

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Sync rebuilds the mirror from the ledger. The whole table is
// replaced in one transaction; the row count is returned.
func (d *DB) Sync(l *Ledger, now time.Time) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting sync: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pubs"); err != nil {
		return 0, fmt.Errorf("clearing mirror: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO pubs (key, title, authors, doi, year, journal, state,
			first_seen, entry_date, annotation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range l.Entries() {
		_, err := stmt.Exec(
			e.Key, e.Title, joinAuthors(e.Authors), e.DOI, e.Year,
			e.Journal, string(e.State),
			formatDate(e.FirstSeen), formatDate(e.EntryDate), e.Annotation,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting %q: %w", e.Key, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('last_sync', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		now.Format(time.RFC3339),
	); err != nil {
		return 0, fmt.Errorf("updating sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing sync: %w", err)
	}
	return l.Len(), nil
}

// Count returns the number of mirrored entries.
func (d *DB) Count() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM pubs").Scan(&n)
	return n, err
}

// StateCounts returns how many entries are in each state.
func (d *DB) StateCounts() (map[State]int, error) {
	rows, err := d.db.Query("SELECT state, COUNT(*) FROM pubs GROUP BY state")
	if err != nil {
		return nil, fmt.Errorf("counting states: %w", err)
	}
	defer rows.Close()

	counts := make(map[State]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[State(state)] = n
	}
	return counts, rows.Err()
}

// LastSync returns when the mirror was last rebuilt, or the zero time.
func (d *DB) LastSync() (time.Time, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'last_sync'").Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}
