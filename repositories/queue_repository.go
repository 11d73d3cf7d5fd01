package repositories

import (
	"context"
	"database/sql"
	"errors"
)

var ErrQueueNotFound = errors.New("queue not found")

// PostgresQueueRepository reads queue metadata. The variant column holds
// the bracket size the queue feeds, as a string.
type PostgresQueueRepository struct {
	db *sql.DB
}

func NewPostgresQueueRepository(db *sql.DB) *PostgresQueueRepository {
	return &PostgresQueueRepository{db: db}
}

func (r *PostgresQueueRepository) QueueVariant(ctx context.Context, queueID string) (string, error) {
	query := `SELECT variant FROM queues WHERE id = $1`

	var variant string
	err := r.db.QueryRowContext(ctx, query, queueID).Scan(&variant)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrQueueNotFound
		}
		return "", err
	}
	return variant, nil
}
