package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// PostgresRepo serves categories and questions from postgres. Options are
// stored as a jsonb array per question.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

// RandomQuestion draws one question from the category, skipping ids already
// played this game.
func (pgr *PostgresRepo) RandomQuestion(ctx context.Context, categoryID int, excludeIDs []int) (domain.Question, error) {
	if excludeIDs == nil {
		excludeIDs = []int{}
	}

	row := pgr.pool.QueryRow(ctx,
		`SELECT id, category_id, COALESCE(image_url, ''), content, options, answer
		 FROM questions
		 WHERE category_id = $1 AND NOT (id = ANY($2))
		 ORDER BY RANDOM()
		 LIMIT 1`,
		categoryID, excludeIDs)

	question := domain.Question{}
	var options []byte

	err := row.Scan(&question.ID, &question.CategoryID, &question.ImageURL, &question.Content, &options, &question.Answer)

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.Question{}, domain.ErrQuestionNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.Question{}, err
		default:
			return domain.Question{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}

	if err := json.Unmarshal(options, &question.Options); err != nil {
		return domain.Question{}, fmt.Errorf("%w: malformed options for question %d: %w", domain.UnexpectedDatabaseError, question.ID, err)
	}

	return question, nil
}

func (pgr *PostgresRepo) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := pgr.pool.Query(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category := domain.Category{}
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return categories, nil
}
