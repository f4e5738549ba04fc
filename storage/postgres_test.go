package storage

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// Integration tests against a disposable database. Point TEST_POSTGRES_URL at
// it to enable them.
func setupPostgres(t *testing.T) *PostgresRepo {
	t.Helper()
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	repo, err := NewPostgresRepo(ctx, url)
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	_, err = repo.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS categories (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS questions (
			id SERIAL PRIMARY KEY,
			category_id INT NOT NULL REFERENCES categories(id),
			image_url TEXT,
			content TEXT NOT NULL,
			options JSONB NOT NULL,
			answer INT NOT NULL
		);
		TRUNCATE questions, categories RESTART IDENTITY CASCADE;
	`)
	require.NoError(t, err)

	_, err = repo.pool.Exec(ctx, `INSERT INTO categories (name) VALUES ('Flags'), ('Capitals')`)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err = repo.pool.Exec(ctx,
			`INSERT INTO questions (category_id, content, options, answer) VALUES ($1, $2, $3, $4)`,
			1, fmt.Sprintf("flag %d", i), `[{"id":0,"value":"TR"},{"id":1,"value":"DE"}]`, 0)
		require.NoError(t, err)
	}

	return repo
}

func TestPostgresRepo_Categories(t *testing.T) {
	repo := setupPostgres(t)

	categories, err := repo.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Flags", categories[0].Name)
}

func TestPostgresRepo_RandomQuestion(t *testing.T) {
	repo := setupPostgres(t)

	q, err := repo.RandomQuestion(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, q.CategoryID)
	assert.Len(t, q.Options, 2)
	assert.Equal(t, 0, q.Answer)
}

func TestPostgresRepo_RandomQuestionHonorsExclusions(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	q, err := repo.RandomQuestion(ctx, 1, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, q.ID)

	_, err = repo.RandomQuestion(ctx, 1, []int{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}

func TestPostgresRepo_EmptyCategory(t *testing.T) {
	repo := setupPostgres(t)

	_, err := repo.RandomQuestion(context.Background(), 2, nil)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}
