package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanda-hq/qanda-bot/internal/logging"
	"github.com/qanda-hq/qanda-bot/internal/models"
	"github.com/qanda-hq/qanda-bot/internal/repository"
)

// mockRepository is a mock implementation of repository.Repository
type mockRepository struct {
	upsertProfileFunc       func(ctx context.Context, p *models.Profile) error
	createQuestionFunc      func(ctx context.Context, q *models.Question) error
	getQuestionByIDFunc     func(ctx context.Context, id string) (*models.Question, error)
	listRecentQuestionsFunc func(ctx context.Context, limit int) ([]*models.Question, error)
	createAnswerFunc        func(ctx context.Context, a *models.Answer) error
	acceptAnswerFunc        func(ctx context.Context, questionID, answerID string) error
}

func (m *mockRepository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	if m.upsertProfileFunc != nil {
		return m.upsertProfileFunc(ctx, p)
	}
	return nil
}

func (m *mockRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	if m.createQuestionFunc != nil {
		return m.createQuestionFunc(ctx, q)
	}
	return nil
}

func (m *mockRepository) GetQuestionByID(ctx context.Context, id string) (*models.Question, error) {
	if m.getQuestionByIDFunc != nil {
		return m.getQuestionByIDFunc(ctx, id)
	}
	return &models.Question{ID: id}, nil
}

func (m *mockRepository) ListRecentQuestions(ctx context.Context, limit int) ([]*models.Question, error) {
	if m.listRecentQuestionsFunc != nil {
		return m.listRecentQuestionsFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	if m.createAnswerFunc != nil {
		return m.createAnswerFunc(ctx, a)
	}
	return nil
}

func (m *mockRepository) AcceptAnswer(ctx context.Context, questionID, answerID string) error {
	if m.acceptAnswerFunc != nil {
		return m.acceptAnswerFunc(ctx, questionID, answerID)
	}
	return nil
}

func (m *mockRepository) Close() error { return nil }

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(repo repository.Repository, events *recordingPublisher) *Service {
	if events == nil {
		events = &recordingPublisher{}
	}
	return NewService(repo, events, logging.New(slog.LevelError, "text"))
}

func TestCreateQuestion(t *testing.T) {
	var created *models.Question
	repo := &mockRepository{
		createQuestionFunc: func(_ context.Context, q *models.Question) error {
			created = q
			return nil
		},
		getQuestionByIDFunc: func(_ context.Context, id string) (*models.Question, error) {
			return created, nil
		},
	}
	events := &recordingPublisher{}
	svc := newTestService(repo, events)

	q, err := svc.CreateQuestion(context.Background(), &models.CreateQuestionRequest{
		Title:     "How do I deploy?",
		Body:      "<p>Hi</p>",
		AuthorRef: "user-1",
	}, &models.Profile{UserID: "user-1", FirstName: "Dana"})
	require.NoError(t, err)

	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "Hi", q.Body)
	assert.Equal(t, "user-1", q.UserID)
	assert.Equal(t, []string{"qna.questions.created"}, events.subjects)
}

func TestCreateQuestionValidation(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
	}{
		{"missing title", "", "<p>body</p>"},
		{"missing body", "Title", ""},
		{"body collapses to empty", "Title", "<div>   </div>"},
	}

	svc := newTestService(&mockRepository{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateQuestion(context.Background(), &models.CreateQuestionRequest{
				Title:     tt.title,
				Body:      tt.body,
				AuthorRef: "user-1",
			}, nil)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestCreateQuestionRepoError(t *testing.T) {
	repoErr := errors.New("db down")
	repo := &mockRepository{
		createQuestionFunc: func(context.Context, *models.Question) error { return repoErr },
	}
	events := &recordingPublisher{}
	svc := newTestService(repo, events)

	_, err := svc.CreateQuestion(context.Background(), &models.CreateQuestionRequest{
		Title: "T", Body: "b", AuthorRef: "user-1",
	}, nil)

	assert.ErrorIs(t, err, repoErr)
	assert.Empty(t, events.subjects)
}

func TestCreateAnswer(t *testing.T) {
	answers := []*models.Answer{}
	repo := &mockRepository{
		getQuestionByIDFunc: func(_ context.Context, id string) (*models.Question, error) {
			return &models.Question{ID: id, UserID: "asker", Answers: answers}, nil
		},
		createAnswerFunc: func(_ context.Context, a *models.Answer) error {
			answers = append(answers, a)
			return nil
		},
	}
	events := &recordingPublisher{}
	svc := newTestService(repo, events)

	q, err := svc.CreateAnswer(context.Background(), &models.CreateAnswerRequest{
		QuestionID: "q-1",
		Body:       "<b>Use the CLI</b>",
		AuthorRef:  "user-2",
	}, nil)
	require.NoError(t, err)

	require.Len(t, q.Answers, 1)
	assert.Equal(t, "**Use the CLI**", q.Answers[0].Body)
	assert.Equal(t, []string{"qna.answers.created"}, events.subjects)
}

func TestCreateAnswerQuestionMissing(t *testing.T) {
	repo := &mockRepository{
		getQuestionByIDFunc: func(context.Context, string) (*models.Question, error) {
			return nil, repository.ErrQuestionNotFound
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.CreateAnswer(context.Background(), &models.CreateAnswerRequest{
		QuestionID: "missing", Body: "b", AuthorRef: "user-2",
	}, nil)

	assert.ErrorIs(t, err, repository.ErrQuestionNotFound)
}

func TestAcceptAnswer(t *testing.T) {
	var acceptedQ, acceptedA string
	repo := &mockRepository{
		getQuestionByIDFunc: func(_ context.Context, id string) (*models.Question, error) {
			return &models.Question{ID: id, UserID: "asker", CreatedAt: time.Now()}, nil
		},
		acceptAnswerFunc: func(_ context.Context, questionID, answerID string) error {
			acceptedQ, acceptedA = questionID, answerID
			return nil
		},
	}
	events := &recordingPublisher{}
	svc := newTestService(repo, events)

	_, err := svc.AcceptAnswer(context.Background(), "q-1", "a-1", "asker")
	require.NoError(t, err)

	assert.Equal(t, "q-1", acceptedQ)
	assert.Equal(t, "a-1", acceptedA)
	assert.Equal(t, []string{"qna.answers.accepted"}, events.subjects)
}

func TestAcceptAnswerNotAuthor(t *testing.T) {
	repo := &mockRepository{
		getQuestionByIDFunc: func(_ context.Context, id string) (*models.Question, error) {
			return &models.Question{ID: id, UserID: "asker"}, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.AcceptAnswer(context.Background(), "q-1", "a-1", "someone-else")

	var aerr *AuthorizationError
	assert.ErrorAs(t, err, &aerr)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	var created *models.Question
	repo := &mockRepository{
		createQuestionFunc: func(_ context.Context, q *models.Question) error {
			created = q
			return nil
		},
		getQuestionByIDFunc: func(context.Context, string) (*models.Question, error) {
			return created, nil
		},
	}
	events := &recordingPublisher{err: errors.New("nats down")}
	svc := newTestService(repo, events)

	_, err := svc.CreateQuestion(context.Background(), &models.CreateQuestionRequest{
		Title: "T", Body: "b", AuthorRef: "user-1",
	}, nil)

	assert.NoError(t, err)
}
