package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ledgerplay/tictactoe-wager/internal/entity"
)

// ArchiveRepository appends every committed transaction group to durable
// storage, one row per group member.
type ArchiveRepository interface {
	SaveGroup(ctx context.Context, committedAt int64, txns []entity.SignedTransaction) error
	GroupIDsByApp(ctx context.Context, appID string) ([]string, error)
}

type dbArchive struct {
	conn *sql.DB
}

func NewArchiveRepository(conn *sql.DB) ArchiveRepository {
	return &dbArchive{
		conn: conn,
	}
}

func (that *dbArchive) SaveGroup(ctx context.Context, committedAt int64, txns []entity.SignedTransaction) error {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const query = `INSERT INTO txn_groups
		(group_id, txn_index, app_id, txn_type, sender, receiver, amount, raw, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i, signed := range txns {
		raw, err := json.Marshal(signed)
		if err != nil {
			return fmt.Errorf("could not marshal archived transaction: %w", err)
		}

		txn := signed.Txn
		if _, err = tx.ExecContext(ctx, query,
			txn.GroupID, i, txn.AppID, string(txn.Type),
			string(txn.Sender), string(txn.Receiver), txn.Amount,
			string(raw), committedAt,
		); err != nil {
			return fmt.Errorf("failed to insert archived transaction: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	return nil
}

func (that *dbArchive) GroupIDsByApp(ctx context.Context, appID string) ([]string, error) {
	const query = `SELECT DISTINCT group_id FROM txn_groups
		WHERE app_id = ? AND txn_index = 0 ORDER BY committed_at`

	rows, err := that.conn.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan archived group: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archived groups: %w", err)
	}

	return ids, nil
}
