package invoke

import (
	"context"
	"errors"
	"time"

	"github.com/qanda-hq/qanda-bot/internal/cards"
	"github.com/qanda-hq/qanda-bot/internal/logging"
	"github.com/qanda-hq/qanda-bot/internal/metrics"
	"github.com/qanda-hq/qanda-bot/internal/models"
	"github.com/qanda-hq/qanda-bot/internal/platform"
	"github.com/qanda-hq/qanda-bot/internal/registry"
	"github.com/qanda-hq/qanda-bot/internal/repository"
	"github.com/qanda-hq/qanda-bot/internal/service"
)

// Update-type markers carried in submit payloads.
const (
	UpdateAnswerAccepted  = "answer_accepted"
	UpdateAnswerSubmitted = "answer_submitted"
)

const genericFailureText = "Something went wrong. Please try again."

// Storage is the domain collaborator the router delegates to.
type Storage interface {
	CreateQuestion(ctx context.Context, req *models.CreateQuestionRequest, author *models.Profile) (*models.Question, error)
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
}

// submitRoute pairs a payload predicate with its handler. Routes are
// evaluated top to bottom; the first match wins.
type submitRoute struct {
	name    string
	match   func(Value) bool
	handler func(ctx context.Context, ev *Event) Response
}

// Router is the invoke protocol state machine. Each event runs to
// completion independently; the lifecycle registry is the only state
// shared across events.
type Router struct {
	modules   *ModuleRegistry
	store     Storage
	connector platform.Connector
	lifecycle registry.Registry
	logger    *logging.Logger
	routes    []submitRoute
}

// NewRouter wires the router's collaborators.
func NewRouter(modules *ModuleRegistry, store Storage, connector platform.Connector, lifecycle registry.Registry, logger *logging.Logger) *Router {
	r := &Router{
		modules:   modules,
		store:     store,
		connector: connector,
		lifecycle: lifecycle,
		logger:    logger,
	}

	// Priority order is authoritative: update-type events before
	// new-question submissions before the generic fallback.
	r.routes = []submitRoute{
		{name: "entity_update", match: isUpdateEvent, handler: r.handleEntityUpdate},
		{name: "new_question", match: isNewQuestion, handler: r.handleNewQuestion},
		{name: "generic", match: func(Value) bool { return true }, handler: r.handleGeneric},
	}

	return r
}

func isUpdateEvent(payload Value) bool {
	t := payload.Type()
	return t == UpdateAnswerAccepted || t == UpdateAnswerSubmitted
}

func isNewQuestion(payload Value) bool {
	return payload.String("title") != "" && payload.String("text") != ""
}

// Handle runs one invoke event through the state machine.
func (r *Router) Handle(ctx context.Context, ev *Event) Response {
	resp := r.dispatch(ctx, ev)

	status := "ok"
	if resp.IsError() {
		status = "error"
	}
	metrics.InvokesTotal.WithLabelValues(ev.Kind.String(), status).Inc()

	return resp
}

func (r *Router) dispatch(ctx context.Context, ev *Event) Response {
	switch ev.Kind {
	case KindModuleFetch:
		return r.handleFetch(ctx, ev)
	case KindModuleSubmit:
		for _, route := range r.routes {
			if route.match(ev.Payload) {
				r.logger.DebugContext(ctx, "submit routed",
					"route", route.name, logging.ConversationID(ev.ConversationID))
				return route.handler(ctx, ev)
			}
		}
		return NoResponse()
	default:
		return NoResponse()
	}
}

func (r *Router) handleFetch(ctx context.Context, ev *Event) Response {
	desc, err := r.modules.Lookup(ev.ModuleID, ev.EntityID)
	if err != nil {
		r.logger.InfoContext(ctx, "module fetch for unknown module",
			logging.ModuleID(ev.ModuleID))
		return ErrorOf(ErrorNotFound, ev.ModuleID)
	}

	return OpenModule(desc)
}

// handleEntityUpdate re-renders the tracked card for an entity whose
// state changed out of band. The stale card is deleted best-effort
// before the replacement is sent; the registry records the new activity
// only after the send is confirmed.
func (r *Router) handleEntityUpdate(ctx context.Context, ev *Event) Response {
	entityID := r.entityID(ev)
	if entityID == "" {
		return Message("That update did not reference a question.")
	}

	log := r.logger.With(logging.QuestionID(entityID))

	q, err := r.store.GetQuestion(ctx, entityID)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			return Message("That question no longer exists.")
		}
		metrics.StorageErrors.Inc()
		log.ErrorContext(ctx, "failed to load question for card update", logging.Error(err))
		return Message(genericFailureText)
	}

	card, err := r.renderQuestionCard(q)
	if err != nil {
		log.ErrorContext(ctx, "failed to render question card", logging.Error(err))
		return Message(genericFailureText)
	}

	r.deletePrior(ctx, ev.ConversationID, entityID)

	activityID, err := r.connector.SendCard(ctx, ev.ConversationID, card)
	if err != nil {
		log.ErrorContext(ctx, "failed to send updated card", logging.Error(err))
		return Message(genericFailureText)
	}
	metrics.CardsSentTotal.Inc()

	if err := r.lifecycle.RecordActivity(ctx, entityID, activityID); err != nil {
		log.WarnContext(ctx, "failed to record card activity",
			logging.ActivityID(activityID), logging.Error(err))
	}

	return NoResponse()
}

// handleNewQuestion creates the question, posts its announcement card
// into the conversation and replaces any tracked compose card.
func (r *Router) handleNewQuestion(ctx context.Context, ev *Event) Response {
	req := &models.CreateQuestionRequest{
		Title: ev.Payload.String("title"),
		Body:  ev.Payload.String("text"),
	}
	author := r.author(ev)
	if author != nil {
		req.AuthorRef = author.UserID
	}

	q, err := r.store.CreateQuestion(ctx, req, author)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return Message(verr.Error())
		}
		metrics.StorageErrors.Inc()
		r.logger.ErrorContext(ctx, "failed to create question", logging.Error(err))
		return Message(genericFailureText)
	}

	log := r.logger.With(logging.QuestionID(q.ID))

	card, err := r.renderCreatedCard(q)
	if err != nil {
		log.ErrorContext(ctx, "failed to render created card", logging.Error(err))
		return Message(genericFailureText)
	}

	// A compose card tracked for the author is now stale.
	if author != nil {
		composeKey := "compose:" + author.UserID
		r.deletePrior(ctx, ev.ConversationID, composeKey)
		if err := r.lifecycle.Forget(ctx, composeKey); err != nil {
			log.WarnContext(ctx, "failed to forget compose card", logging.Error(err))
		}
	}

	activityID, err := r.connector.SendCard(ctx, ev.ConversationID, card)
	if err != nil {
		log.ErrorContext(ctx, "failed to send created card", logging.Error(err))
		return Message(genericFailureText)
	}
	metrics.CardsSentTotal.Inc()

	if err := r.lifecycle.RecordActivity(ctx, q.ID, activityID); err != nil {
		log.WarnContext(ctx, "failed to record card activity",
			logging.ActivityID(activityID), logging.Error(err))
	}

	return ContinueCard(card)
}

// handleGeneric maps plain submit outcomes straight onto response
// variants. The outcome is declared in the payload's taskResponse
// field; payloads without one fall back to the type marker.
func (r *Router) handleGeneric(ctx context.Context, ev *Event) Response {
	outcome := ev.Payload.String("taskResponse")
	if outcome == "" {
		outcome = ev.Payload.Type()
	}

	switch outcome {
	case "message":
		text := ev.Payload.String("message")
		if text == "" {
			text = "Thanks!"
		}
		return Message(text)
	case "continue":
		card, err := r.renderConfirmation(ev.Payload.String("results"))
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to render confirmation card", logging.Error(err))
			return Message(genericFailureText)
		}
		return ContinueCard(card)
	case "final":
		return Final()
	default:
		return Message("Thanks for your submission!")
	}
}

// deletePrior removes the tracked activity for key if any. Failure is
// logged and swallowed; the replacement send is the operation of
// record.
func (r *Router) deletePrior(ctx context.Context, conversationID, key string) {
	prior, err := r.lifecycle.GetActivity(ctx, key)
	if err != nil {
		if !errors.Is(err, registry.ErrNotTracked) {
			r.logger.WarnContext(ctx, "failed to look up prior card", logging.Error(err))
		}
		return
	}

	if err := r.connector.DeleteActivity(ctx, conversationID, prior); err != nil {
		metrics.CardDeletesTotal.WithLabelValues("failure").Inc()
		r.logger.WarnContext(ctx, "failed to delete prior card",
			logging.ActivityID(prior), logging.Error(err))
		return
	}
	metrics.CardDeletesTotal.WithLabelValues("success").Inc()
}

func (r *Router) entityID(ev *Event) string {
	if id := ev.Payload.Map("data").Map("question").String("id"); id != "" {
		return id
	}
	if id := ev.Payload.String("questionId"); id != "" {
		return id
	}
	return ev.EntityID
}

func (r *Router) author(ev *Event) *models.Profile {
	if ev.From != nil && ev.From.UserID != "" {
		return ev.From
	}
	if id := ev.Payload.String("userId"); id != "" {
		return &models.Profile{
			UserID:    id,
			FirstName: ev.Payload.String("userName"),
		}
	}
	return nil
}

func (r *Router) renderQuestionCard(q *models.Question) (*cards.RenderedCard, error) {
	start := time.Now()
	defer func() { metrics.RenderDuration.Observe(time.Since(start).Seconds()) }()
	return cards.QuestionCard(r.questionView(q))
}

func (r *Router) renderCreatedCard(q *models.Question) (*cards.RenderedCard, error) {
	start := time.Now()
	defer func() { metrics.RenderDuration.Observe(time.Since(start).Seconds()) }()
	return cards.QuestionCreatedCard(r.questionView(q))
}

func (r *Router) renderConfirmation(results string) (*cards.RenderedCard, error) {
	if results == "" {
		results = "Submitted."
	}
	return cards.Render(cards.TemplateSubmitConfirmation, map[string]any{
		"results": results,
	})
}

func (r *Router) questionView(q *models.Question) cards.QuestionView {
	view := cards.QuestionView{
		ID:         q.ID,
		Title:      q.Title,
		Body:       q.Body,
		AuthorName: q.Profile.DisplayName(),
		CreatedAt:  q.CreatedAt,
		AppURL:     r.modules.QuestionURL(q.ID),
	}
	for _, a := range q.Answers {
		view.Answers = append(view.Answers, cards.AnswerView{
			AuthorName: a.Profile.DisplayName(),
			Body:       a.Body,
			Accepted:   a.Accepted,
			CreatedAt:  a.CreatedAt,
		})
	}
	return view
}
