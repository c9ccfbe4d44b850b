package repository

import (
	"context"
	"errors"

	"github.com/qanda-hq/qanda-bot/internal/models"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrAnswerNotFound   = errors.New("answer not found")
)

// Repository defines the interface for question and answer persistence
type Repository interface {
	// Profile operations
	UpsertProfile(ctx context.Context, p *models.Profile) error

	// Question operations
	CreateQuestion(ctx context.Context, q *models.Question) error
	GetQuestionByID(ctx context.Context, id string) (*models.Question, error)
	ListRecentQuestions(ctx context.Context, limit int) ([]*models.Question, error)

	// Answer operations
	CreateAnswer(ctx context.Context, a *models.Answer) error
	AcceptAnswer(ctx context.Context, questionID, answerID string) error

	// Utility
	Close() error
}
