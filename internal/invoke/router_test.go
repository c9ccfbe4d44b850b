package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanda-hq/qanda-bot/internal/cards"
	"github.com/qanda-hq/qanda-bot/internal/logging"
	"github.com/qanda-hq/qanda-bot/internal/models"
	"github.com/qanda-hq/qanda-bot/internal/registry"
	"github.com/qanda-hq/qanda-bot/internal/repository"
	"github.com/qanda-hq/qanda-bot/internal/service"
)

// mockStorage is a mock implementation of Storage
type mockStorage struct {
	createQuestionFunc func(ctx context.Context, req *models.CreateQuestionRequest, author *models.Profile) (*models.Question, error)
	getQuestionFunc    func(ctx context.Context, id string) (*models.Question, error)
}

func (m *mockStorage) CreateQuestion(ctx context.Context, req *models.CreateQuestionRequest, author *models.Profile) (*models.Question, error) {
	if m.createQuestionFunc != nil {
		return m.createQuestionFunc(ctx, req, author)
	}
	return &models.Question{ID: "q-new", Title: req.Title, Body: req.Body, CreatedAt: time.Now()}, nil
}

func (m *mockStorage) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	if m.getQuestionFunc != nil {
		return m.getQuestionFunc(ctx, id)
	}
	return &models.Question{ID: id, Title: "Q", Body: "body", CreatedAt: time.Now()}, nil
}

// mockConnector records the order of platform calls.
type mockConnector struct {
	calls     []string
	deleteErr error
	sendErr   error
	sent      int
}

func (m *mockConnector) SendCard(_ context.Context, conversationID string, _ *cards.RenderedCard) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sent++
	id := fmt.Sprintf("act-new-%d", m.sent)
	m.calls = append(m.calls, "send:"+id)
	return id, nil
}

func (m *mockConnector) DeleteActivity(_ context.Context, _, activityID string) error {
	m.calls = append(m.calls, "delete:"+activityID)
	return m.deleteErr
}

type routerFixture struct {
	router    *Router
	store     *mockStorage
	connector *mockConnector
	lifecycle registry.Registry
}

func newFixture() *routerFixture {
	store := &mockStorage{}
	connector := &mockConnector{}
	lifecycle := registry.NewMemoryRegistry()
	modules := NewModuleRegistry("https://bot.example.com", "https://qa.example.com", "bot-app-id")
	router := NewRouter(modules, store, connector, lifecycle, logging.New(slog.LevelError, "text"))
	return &routerFixture{router: router, store: store, connector: connector, lifecycle: lifecycle}
}

func TestFetchKnownModule(t *testing.T) {
	f := newFixture()

	resp := f.router.Handle(context.Background(), &Event{
		Kind:     KindModuleFetch,
		ModuleID: "askquestion",
	})

	require.False(t, resp.IsError())
	desc := resp.Descriptor()
	require.NotNil(t, desc)
	assert.Equal(t, "Ask a Question", desc.Title)
	assert.Equal(t, 1020, desc.Height)
	assert.Equal(t, 1632, desc.Width)
	assert.Equal(t, "https://bot.example.com/form/ask", desc.URL)
	assert.Equal(t, "bot-app-id", desc.CompletionBotID)

	body := resp.Body().(map[string]any)
	task := body["task"].(map[string]any)
	assert.Equal(t, "continue", task["type"])
	value := task["value"].(map[string]any)
	assert.Equal(t, 1020, value["height"])
	assert.Equal(t, "bot-app-id", value["completionBotId"])
}

func TestFetchIsCaseInsensitive(t *testing.T) {
	f := newFixture()

	resp := f.router.Handle(context.Background(), &Event{
		Kind:     KindModuleFetch,
		ModuleID: "AskQuestion",
	})

	require.NotNil(t, resp.Descriptor())
	assert.Equal(t, "Ask a Question", resp.Descriptor().Title)
}

func TestFetchEntityScopedModule(t *testing.T) {
	f := newFixture()

	resp := f.router.Handle(context.Background(), &Event{
		Kind:     KindModuleFetch,
		ModuleID: "viewquestion",
		EntityID: "q-42",
	})

	desc := resp.Descriptor()
	require.NotNil(t, desc)
	assert.Equal(t, "https://bot.example.com/form/question/q-42", desc.URL)
	assert.Equal(t, "https://qa.example.com/question/q-42", desc.FallbackURL)
}

func TestFetchUnknownModule(t *testing.T) {
	f := newFixture()

	resp := f.router.Handle(context.Background(), &Event{
		Kind:     KindModuleFetch,
		ModuleID: "bogus",
	})

	require.True(t, resp.IsError())
	kind, detail := resp.ErrorDetail()
	assert.Equal(t, ErrorNotFound, kind)
	assert.Equal(t, "bogus", detail)
	assert.Equal(t, 404, resp.StatusCode())
}

func TestFetchMissingModuleID(t *testing.T) {
	f := newFixture()

	resp := f.router.Handle(context.Background(), &Event{Kind: KindModuleFetch})

	require.True(t, resp.IsError())
	kind, _ := resp.ErrorDetail()
	assert.Equal(t, ErrorNotFound, kind)
}

func TestOtherKindIsSilent(t *testing.T) {
	f := newFixture()

	resp := f.router.Handle(context.Background(), &Event{Kind: KindOther})

	assert.Nil(t, resp.Body())
	assert.Equal(t, 200, resp.StatusCode())
}

func TestSubmitNewQuestion(t *testing.T) {
	f := newFixture()
	var gotReq *models.CreateQuestionRequest
	f.store.createQuestionFunc = func(_ context.Context, req *models.CreateQuestionRequest, _ *models.Profile) (*models.Question, error) {
		gotReq = req
		return &models.Question{ID: "q-new", Title: req.Title, Body: "Hi", CreatedAt: time.Now()}, nil
	}

	resp := f.router.Handle(context.Background(), &Event{
		Kind:           KindModuleSubmit,
		ConversationID: "conv-1",
		Payload: Value{
			"title":  "T",
			"text":   "<p>Hi</p>",
			"userId": "u1",
		},
	})

	require.NotNil(t, gotReq)
	assert.Equal(t, "T", gotReq.Title)
	assert.Equal(t, "u1", gotReq.AuthorRef)

	// The created card is sent into the conversation and echoed back.
	require.Len(t, f.connector.calls, 1)
	assert.Equal(t, "send:act-new-1", f.connector.calls[0])
	require.NotNil(t, resp.Card())

	id, err := f.lifecycle.GetActivity(context.Background(), "q-new")
	require.NoError(t, err)
	assert.Equal(t, "act-new-1", id)
}

func TestSubmitNewQuestionSanitizesBody(t *testing.T) {
	// With the real service in front of persistence the stored body is
	// the sanitized text, not the raw markup.
	f := newFixture()
	var stored string
	repo := &captureRepo{
		onCreate: func(q *models.Question) { stored = q.Body },
	}
	f.router.store = newServiceStorage(repo)

	f.router.Handle(context.Background(), &Event{
		Kind:           KindModuleSubmit,
		ConversationID: "conv-1",
		Payload:        Value{"title": "T", "text": "<p>Hi</p>", "userId": "u1"},
	})

	assert.Equal(t, "Hi", stored)
}

func TestSubmitUpdateDeletesBeforeSend(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.lifecycle.RecordActivity(ctx, "q1", "act-123"))

	resp := f.router.Handle(ctx, &Event{
		Kind:           KindModuleSubmit,
		ConversationID: "conv-1",
		Payload: Value{
			"type": "answer_accepted",
			"data": map[string]any{
				"question": map[string]any{"id": "q1"},
			},
		},
	})

	require.Equal(t, []string{"delete:act-123", "send:act-new-1"}, f.connector.calls)

	id, err := f.lifecycle.GetActivity(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "act-new-1", id)

	assert.Nil(t, resp.Body())
}

func TestSubmitUpdateDeleteFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.lifecycle.RecordActivity(ctx, "q1", "act-123"))
	f.connector.deleteErr = errors.New("gone")

	f.router.Handle(ctx, &Event{
		Kind:    KindModuleSubmit,
		Payload: Value{"type": "answer_submitted", "questionId": "q1"},
	})

	require.Equal(t, []string{"delete:act-123", "send:act-new-1"}, f.connector.calls)

	id, err := f.lifecycle.GetActivity(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "act-new-1", id)
}

func TestSubmitUpdateSendFailureKeepsRegistry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.lifecycle.RecordActivity(ctx, "q1", "act-123"))
	f.connector.sendErr = errors.New("platform down")

	resp := f.router.Handle(ctx, &Event{
		Kind:    KindModuleSubmit,
		Payload: Value{"type": "answer_accepted", "questionId": "q1"},
	})

	// The registry still points at the old activity; the user sees a
	// generic failure.
	id, err := f.lifecycle.GetActivity(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "act-123", id)

	body := resp.Body().(map[string]any)
	task := body["task"].(map[string]any)
	assert.Equal(t, "message", task["type"])
}

func TestSubmitUpdateUnknownQuestion(t *testing.T) {
	f := newFixture()
	f.store.getQuestionFunc = func(context.Context, string) (*models.Question, error) {
		return nil, repository.ErrQuestionNotFound
	}

	resp := f.router.Handle(context.Background(), &Event{
		Kind:    KindModuleSubmit,
		Payload: Value{"type": "answer_accepted", "questionId": "q-gone"},
	})

	body := resp.Body().(map[string]any)
	task := body["task"].(map[string]any)
	assert.Equal(t, "message", task["type"])
	assert.Equal(t, "That question no longer exists.", task["value"])
	assert.Empty(t, f.connector.calls)
}

func TestSubmitPriorityUpdateBeforeNewQuestion(t *testing.T) {
	f := newFixture()
	created := false
	f.store.createQuestionFunc = func(_ context.Context, req *models.CreateQuestionRequest, _ *models.Profile) (*models.Question, error) {
		created = true
		return &models.Question{ID: "q-new"}, nil
	}
	fetched := false
	f.store.getQuestionFunc = func(_ context.Context, id string) (*models.Question, error) {
		fetched = true
		return &models.Question{ID: id, Title: "Q", Body: "b", CreatedAt: time.Now()}, nil
	}

	// Payload satisfies both the update predicate and the new-question
	// predicate; the update branch must win.
	f.router.Handle(context.Background(), &Event{
		Kind: KindModuleSubmit,
		Payload: Value{
			"type":       "answer_accepted",
			"questionId": "q1",
			"title":      "T",
			"text":       "body",
		},
	})

	assert.True(t, fetched)
	assert.False(t, created)
}

func TestSubmitGenericOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		payload  Value
		wantType string
		wantText string
	}{
		{"message", Value{"taskResponse": "message", "message": "hello"}, "message", "hello"},
		{"continue", Value{"taskResponse": "continue", "results": "done"}, "continue", ""},
		{"final", Value{"taskResponse": "final"}, "final", ""},
		{"type marker fallback", Value{"type": "message", "message": "typed"}, "message", "typed"},
		{"taskResponse wins over type", Value{"taskResponse": "final", "type": "message"}, "final", ""},
		{"unknown outcome", Value{"taskResponse": "mystery"}, "message", "Thanks for your submission!"},
		{"empty payload", Value{}, "message", "Thanks for your submission!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			resp := f.router.Handle(context.Background(), &Event{
				Kind:    KindModuleSubmit,
				Payload: tt.payload,
			})

			body := resp.Body().(map[string]any)
			task := body["task"].(map[string]any)
			assert.Equal(t, tt.wantType, task["type"])
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, task["value"])
			}
		})
	}
}

func TestSubmitNewQuestionReplacesComposeCard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.lifecycle.RecordActivity(ctx, "compose:u1", "act-compose"))

	f.router.Handle(ctx, &Event{
		Kind:           KindModuleSubmit,
		ConversationID: "conv-1",
		Payload:        Value{"title": "T", "text": "body", "userId": "u1"},
	})

	require.Equal(t, []string{"delete:act-compose", "send:act-new-1"}, f.connector.calls)

	_, err := f.lifecycle.GetActivity(ctx, "compose:u1")
	assert.ErrorIs(t, err, registry.ErrNotTracked)
}

// captureRepo is a minimal repository.Repository for wiring the real
// service in front of the router.
type captureRepo struct {
	onCreate func(q *models.Question)
	last     *models.Question
}

func (c *captureRepo) UpsertProfile(context.Context, *models.Profile) error { return nil }

func (c *captureRepo) CreateQuestion(_ context.Context, q *models.Question) error {
	c.last = q
	if c.onCreate != nil {
		c.onCreate(q)
	}
	return nil
}

func (c *captureRepo) GetQuestionByID(_ context.Context, id string) (*models.Question, error) {
	if c.last != nil && c.last.ID == id {
		return c.last, nil
	}
	return nil, repository.ErrQuestionNotFound
}

func (c *captureRepo) ListRecentQuestions(context.Context, int) ([]*models.Question, error) {
	return nil, nil
}

func (c *captureRepo) CreateAnswer(context.Context, *models.Answer) error { return nil }

func (c *captureRepo) AcceptAnswer(context.Context, string, string) error { return nil }

func (c *captureRepo) Close() error { return nil }

func newServiceStorage(repo repository.Repository) Storage {
	return service.NewService(repo, nil, logging.New(slog.LevelError, "text"))
}
