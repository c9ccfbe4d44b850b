// Package messaging publishes domain events so other services can react
// to Q&A activity.
package messaging

import (
	"context"
	"time"
)

// Subjects for published events.
const (
	SubjectQuestionCreated = "qna.questions.created"
	SubjectAnswerCreated   = "qna.answers.created"
	SubjectAnswerAccepted  = "qna.answers.accepted"
)

// QuestionCreatedEvent announces a newly posted question.
type QuestionCreatedEvent struct {
	QuestionID string    `json:"question_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnswerCreatedEvent announces a newly posted answer.
type AnswerCreatedEvent struct {
	AnswerID   string    `json:"answer_id"`
	QuestionID string    `json:"question_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnswerAcceptedEvent announces that an answer was marked accepted.
type AnswerAcceptedEvent struct {
	AnswerID   string    `json:"answer_id"`
	QuestionID string    `json:"question_id"`
	AcceptedBy string    `json:"accepted_by"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// Publisher sends domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishJSON(ctx context.Context, subject string, data any) error
	Close() error
}

// NoopPublisher discards events. Used when messaging is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishJSON(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                                   { return nil }
