// Package history persists the identifier -> snapshot mapping and the
// per-run report artifacts. Entries are only ever created or overwritten;
// rotation is an external data-retention concern.
package history

import (
	"context"
	"database/sql"
	"encoding/json"

	"registrywatch-backend/services/monitor/report"
	"registrywatch-backend/services/monitor/snapshot"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	_ "embed"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Snapshot returns the stored snapshot for an identifier; the bool reports
// whether one exists, distinguishing "never checked" from "checked, empty".
func (s Store) Snapshot(ctx context.Context, identifier string) (snapshot.EntitySnapshot, bool, error) {
	var data string
	err := s.db.QueryRowContext(
		ctx,
		"SELECT data FROM entity_snapshots WHERE identifier = ?",
		identifier,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return snapshot.EntitySnapshot{}, false, nil
	}
	if err != nil {
		return snapshot.EntitySnapshot{}, false, err
	}

	var snap snapshot.EntitySnapshot
	err = json.Unmarshal([]byte(data), &snap)
	if err != nil {
		return snapshot.EntitySnapshot{}, false, err
	}
	return snap, true, nil
}

func (s Store) All(ctx context.Context) (map[string]snapshot.EntitySnapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM entity_snapshots")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := map[string]snapshot.EntitySnapshot{}
	for rows.Next() {
		var data string
		err = rows.Scan(&data)
		if err != nil {
			return nil, err
		}
		var snap snapshot.EntitySnapshot
		err = json.Unmarshal([]byte(data), &snap)
		if err != nil {
			return nil, err
		}
		snapshots[snap.Identifier] = snap
	}
	return snapshots, rows.Err()
}

// Put upserts the snapshot for its identifier. Documents are
// re-canonicalized on every write so stored history can never differ from a
// fresh extraction by ordering or duplication alone.
func (s Store) Put(ctx context.Context, snap snapshot.EntitySnapshot) error {
	snap.Documents = snapshot.CanonicalizeDocuments(snap.Documents)

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO entity_snapshots (identifier, captured_at, data) VALUES (?, ?, ?)
		 ON CONFLICT (identifier) DO UPDATE SET captured_at = excluded.captured_at, data = excluded.data`,
		snap.Identifier,
		snap.CapturedAt.Unix(),
		string(data),
	)
	return err
}

// SaveReport persists the run's notification artifact. The full payload is
// stored as one JSON document so an external delivery mechanism can consume
// it without joining columns.
func (s Store) SaveReport(ctx context.Context, rep report.Report) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		"INSERT INTO reports (id, generated_at, recipient, subject, body, payload) VALUES (?, ?, ?, ?, ?, ?)",
		rep.ID,
		rep.GeneratedAt.Unix(),
		rep.Recipient,
		rep.Subject,
		rep.Body,
		string(payload),
	)
	return err
}

func (s Store) Report(ctx context.Context, id string) (report.Report, error) {
	var payload string
	err := s.db.QueryRowContext(
		ctx,
		"SELECT payload FROM reports WHERE id = ?",
		id,
	).Scan(&payload)
	if err != nil {
		return report.Report{}, err
	}

	var rep report.Report
	err = json.Unmarshal([]byte(payload), &rep)
	return rep, err
}
