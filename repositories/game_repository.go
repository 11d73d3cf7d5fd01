package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGamePlayerUnknown = errors.New("game references an unknown player")
)

// PostgresGameRepository owns the games table rows backing every match the
// core creates.
type PostgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) *PostgresGameRepository {
	return &PostgresGameRepository{db: db}
}

// CreateGame inserts a pending game row and returns its id.
func (r *PostgresGameRepository) CreateGame(ctx context.Context, player1ID, player2ID string) (string, error) {
	query := `INSERT INTO games (id, player1_id, player2_id, status)
	          VALUES ($1, $2, $3, 'pending')
	          RETURNING id`

	var gameID string
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), player1ID, player2ID).Scan(&gameID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return "", ErrGamePlayerUnknown
		}
		return "", err
	}
	return gameID, nil
}

// RecordResult settles a game row with its winner.
func (r *PostgresGameRepository) RecordResult(ctx context.Context, gameID, winnerID string) error {
	query := `UPDATE games
	          SET winner_id = $1, status = 'completed', finished_at = NOW()
	          WHERE id = $2 AND status <> 'completed'`

	result, err := r.db.ExecContext(ctx, query, winnerID, gameID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Either the id is unknown or the result already landed; callers
		// treat duplicate delivery as a no-op, so only the former is
		// worth distinguishing.
		var exists bool
		check := `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`
		if checkErr := r.db.QueryRowContext(ctx, check, gameID).Scan(&exists); checkErr != nil {
			return checkErr
		}
		if !exists {
			return ErrGameNotFound
		}
	}
	return nil
}
