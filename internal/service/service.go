// Package service holds the Q&A business logic between the invoke layer
// and persistence.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qanda-hq/qanda-bot/internal/logging"
	"github.com/qanda-hq/qanda-bot/internal/markup"
	"github.com/qanda-hq/qanda-bot/internal/messaging"
	"github.com/qanda-hq/qanda-bot/internal/models"
	"github.com/qanda-hq/qanda-bot/internal/repository"
)

// ValidationError reports user-correctable input problems. Its message
// is safe to show to the user.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AuthorizationError is returned when a user attempts an operation
// reserved for the question author.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}

const maxTitleLength = 250

// Service handles business logic for questions and answers
type Service struct {
	repo   repository.Repository
	events messaging.Publisher
	logger *logging.Logger
}

// NewService creates a new service instance
func NewService(repo repository.Repository, events messaging.Publisher, logger *logging.Logger) *Service {
	if events == nil {
		events = messaging.NoopPublisher{}
	}
	return &Service{repo: repo, events: events, logger: logger}
}

// CreateQuestion sanitizes the submitted markup, persists the question
// and announces it. The author profile is upserted first so the stored
// question always joins to a profile.
func (s *Service) CreateQuestion(ctx context.Context, req *models.CreateQuestionRequest, author *models.Profile) (*models.Question, error) {
	if req.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}
	if len(req.Title) > maxTitleLength {
		return nil, &ValidationError{Field: "title", Reason: "is too long"}
	}

	display := markup.ToDisplayText(req.Body)
	if display.Text == "" && len(display.Images) == 0 {
		return nil, &ValidationError{Field: "text", Reason: "is required"}
	}

	if author != nil {
		if err := s.repo.UpsertProfile(ctx, author); err != nil {
			return nil, err
		}
	}

	questionUUID, _ := uuid.NewV7()
	q := &models.Question{
		ID:        questionUUID.String(),
		UserID:    req.AuthorRef,
		Title:     req.Title,
		Body:      display.Text,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.SubjectQuestionCreated, messaging.QuestionCreatedEvent{
		QuestionID: q.ID,
		UserID:     q.UserID,
		Title:      q.Title,
		CreatedAt:  q.CreatedAt,
	})

	return s.repo.GetQuestionByID(ctx, q.ID)
}

// GetQuestion retrieves a question with its answers
func (s *Service) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	return s.repo.GetQuestionByID(ctx, id)
}

// ListRecentQuestions retrieves the newest questions
func (s *Service) ListRecentQuestions(ctx context.Context, limit int) ([]*models.Question, error) {
	return s.repo.ListRecentQuestions(ctx, limit)
}

// CreateAnswer sanitizes and persists an answer, then returns the
// refreshed question.
func (s *Service) CreateAnswer(ctx context.Context, req *models.CreateAnswerRequest, author *models.Profile) (*models.Question, error) {
	display := markup.ToDisplayText(req.Body)
	if display.Text == "" && len(display.Images) == 0 {
		return nil, &ValidationError{Field: "text", Reason: "is required"}
	}

	// Verify the question exists before writing.
	if _, err := s.repo.GetQuestionByID(ctx, req.QuestionID); err != nil {
		return nil, err
	}

	if author != nil {
		if err := s.repo.UpsertProfile(ctx, author); err != nil {
			return nil, err
		}
	}

	answerUUID, _ := uuid.NewV7()
	a := &models.Answer{
		ID:         answerUUID.String(),
		QuestionID: req.QuestionID,
		UserID:     req.AuthorRef,
		Body:       display.Text,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.CreateAnswer(ctx, a); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.SubjectAnswerCreated, messaging.AnswerCreatedEvent{
		AnswerID:   a.ID,
		QuestionID: a.QuestionID,
		UserID:     a.UserID,
		CreatedAt:  a.CreatedAt,
	})

	return s.repo.GetQuestionByID(ctx, req.QuestionID)
}

// AcceptAnswer marks an answer accepted. Only the question author may
// accept; any other requester gets an AuthorizationError.
func (s *Service) AcceptAnswer(ctx context.Context, questionID, answerID, requesterID string) (*models.Question, error) {
	q, err := s.repo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if requesterID != "" && q.UserID != requesterID {
		return nil, &AuthorizationError{Action: "accept an answer"}
	}

	if err := s.repo.AcceptAnswer(ctx, questionID, answerID); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "answer accepted",
		logging.QuestionID(questionID), logging.AnswerID(answerID))

	s.publish(ctx, messaging.SubjectAnswerAccepted, messaging.AnswerAcceptedEvent{
		AnswerID:   answerID,
		QuestionID: questionID,
		AcceptedBy: requesterID,
		AcceptedAt: time.Now().UTC(),
	})

	return s.repo.GetQuestionByID(ctx, questionID)
}

// publish is best effort; losing an event never fails the operation.
func (s *Service) publish(ctx context.Context, subject string, event any) {
	if err := s.events.PublishJSON(ctx, subject, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"subject", subject, logging.Error(err))
	}
}
