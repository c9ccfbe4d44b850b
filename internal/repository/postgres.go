package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qanda-hq/qanda-bot/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// UpsertProfile inserts or refreshes an author profile
func (r *PostgresRepository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, first_name, last_name, email, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, p.UserID, p.FirstName, p.LastName, p.Email)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// CreateQuestion creates a new question
func (r *PostgresRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	query := `
		INSERT INTO questions (id, user_id, title, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`

	_, err := r.pool.Exec(ctx, query, q.ID, q.UserID, q.Title, q.Body, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	return nil
}

// GetQuestionByID retrieves a question with its author profile and all
// answers ordered oldest first
func (r *PostgresRepository) GetQuestionByID(ctx context.Context, id string) (*models.Question, error) {
	query := `
		SELECT
			q.id, q.user_id, q.title, q.body, q.created_at, q.updated_at,
			p.user_id, p.first_name, p.last_name, p.email
		FROM questions q
		LEFT JOIN profiles p ON q.user_id = p.user_id
		WHERE q.id = $1
	`

	q := &models.Question{}
	var profileID, firstName, lastName, email *string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.UserID, &q.Title, &q.Body, &q.CreatedAt, &q.UpdatedAt,
		&profileID, &firstName, &lastName, &email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	q.Profile = buildProfile(profileID, firstName, lastName, email)

	answers, err := r.getAnswers(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Answers = answers

	return q, nil
}

func (r *PostgresRepository) getAnswers(ctx context.Context, questionID string) ([]*models.Answer, error) {
	query := `
		SELECT
			a.id, a.question_id, a.user_id, a.body, a.accepted, a.created_at,
			p.user_id, p.first_name, p.last_name, p.email
		FROM answers a
		LEFT JOIN profiles p ON a.user_id = p.user_id
		WHERE a.question_id = $1
		ORDER BY a.created_at ASC, a.id ASC
	`

	rows, err := r.pool.Query(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}
	defer rows.Close()

	answers := []*models.Answer{}
	for rows.Next() {
		a := &models.Answer{}
		var profileID, firstName, lastName, email *string
		if err := rows.Scan(
			&a.ID, &a.QuestionID, &a.UserID, &a.Body, &a.Accepted, &a.CreatedAt,
			&profileID, &firstName, &lastName, &email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		a.Profile = buildProfile(profileID, firstName, lastName, email)
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}

	return answers, nil
}

// ListRecentQuestions retrieves the newest questions with their author
// profiles, without answers
func (r *PostgresRepository) ListRecentQuestions(ctx context.Context, limit int) ([]*models.Question, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			q.id, q.user_id, q.title, q.body, q.created_at, q.updated_at,
			p.user_id, p.first_name, p.last_name, p.email
		FROM questions q
		LEFT JOIN profiles p ON q.user_id = p.user_id
		ORDER BY q.created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []*models.Question{}
	for rows.Next() {
		q := &models.Question{}
		var profileID, firstName, lastName, email *string
		if err := rows.Scan(
			&q.ID, &q.UserID, &q.Title, &q.Body, &q.CreatedAt, &q.UpdatedAt,
			&profileID, &firstName, &lastName, &email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Profile = buildProfile(profileID, firstName, lastName, email)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	return questions, nil
}

// CreateAnswer creates a new answer
func (r *PostgresRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	query := `
		INSERT INTO answers (id, question_id, user_id, body, accepted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, a.ID, a.QuestionID, a.UserID, a.Body, a.Accepted, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}

	return nil
}

// AcceptAnswer marks one answer as accepted and clears the flag on every
// other answer of the question, in a single transaction
func (r *PostgresRepository) AcceptAnswer(ctx context.Context, questionID, answerID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE answers SET accepted = false WHERE question_id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("failed to clear accepted answers: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE answers SET accepted = true WHERE id = $1 AND question_id = $2`,
		answerID, questionID)
	if err != nil {
		return fmt.Errorf("failed to accept answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAnswerNotFound
	}

	_, err = tx.Exec(ctx,
		`UPDATE questions SET updated_at = NOW() WHERE id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("failed to touch question: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func buildProfile(userID, firstName, lastName, email *string) *models.Profile {
	if userID == nil {
		return nil
	}
	p := &models.Profile{UserID: *userID}
	if firstName != nil {
		p.FirstName = *firstName
	}
	if lastName != nil {
		p.LastName = *lastName
	}
	if email != nil {
		p.Email = *email
	}
	return p
}
