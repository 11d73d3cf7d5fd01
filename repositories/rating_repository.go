package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/arena/models"
)

// PostgresRatingRepository resolves player ratings from the users table.
// Unknown users resolve to the default rating; that is not an error, new
// accounts simply have no rating row yet.
type PostgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) *PostgresRatingRepository {
	return &PostgresRatingRepository{db: db}
}

func (r *PostgresRatingRepository) PlayerRating(ctx context.Context, userID string) (int, error) {
	query := `SELECT elo FROM users WHERE id = $1`

	var elo int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&elo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultRating, nil
		}
		return 0, err
	}
	return elo, nil
}
