// Package handlers exposes the bot's HTTP surface: the activity
// endpoint the platform posts to, plus health checks.
package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/qanda-hq/qanda-bot/internal/auth"
	"github.com/qanda-hq/qanda-bot/internal/cards"
	"github.com/qanda-hq/qanda-bot/internal/compose"
	"github.com/qanda-hq/qanda-bot/internal/httputil"
	"github.com/qanda-hq/qanda-bot/internal/invoke"
	"github.com/qanda-hq/qanda-bot/internal/logging"
	"github.com/qanda-hq/qanda-bot/internal/models"
	"github.com/qanda-hq/qanda-bot/internal/platform"
	"github.com/qanda-hq/qanda-bot/internal/service"
)

// Activity is the inbound platform activity envelope.
type Activity struct {
	Type         string          `json:"type"`
	Name         string          `json:"name"`
	Text         string          `json:"text"`
	Value        json.RawMessage `json:"value"`
	Conversation struct {
		ID string `json:"id"`
	} `json:"conversation"`
	From struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"from"`
}

type Handler struct {
	router    *invoke.Router
	svc       *service.Service
	connector platform.Connector
	modules   *invoke.ModuleRegistry
	verifier  *auth.Verifier
	logger    *logging.Logger
}

// NewHandler creates the activity handler. verifier may be nil to
// disable inbound token checks (local development only).
func NewHandler(router *invoke.Router, svc *service.Service, connector platform.Connector, modules *invoke.ModuleRegistry, verifier *auth.Verifier, logger *logging.Logger) *Handler {
	return &Handler{
		router:    router,
		svc:       svc,
		connector: connector,
		modules:   modules,
		verifier:  verifier,
		logger:    logger,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Messages handles POST /api/messages, the endpoint the platform
// delivers all activities to.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.verifier != nil {
		if _, err := h.verifier.VerifyHeader(r.Header.Get("Authorization")); err != nil {
			h.logger.WarnContext(r.Context(), "rejected activity with bad token", logging.Error(err))
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}
	}

	var act Activity
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid activity body")
		return
	}

	switch act.Type {
	case "invoke":
		h.handleInvoke(w, r, &act)
	case "message":
		h.handleMessage(w, r, &act)
	default:
		httputil.WriteNoContent(w, http.StatusOK)
	}
}

func (h *Handler) handleInvoke(w http.ResponseWriter, r *http.Request, act *Activity) {
	if act.Name == "composeExtension/query" {
		h.handleComposeQuery(w, act)
		return
	}

	value := invoke.Value{}
	if len(act.Value) > 0 {
		if err := json.Unmarshal(act.Value, &value); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid invoke value")
			return
		}
	}

	h.logger.DebugContext(r.Context(), "invoke received",
		logging.InvokeName(act.Name), logging.UserID(act.From.ID))

	ev := buildEvent(act, value)
	resp := h.router.Handle(r.Context(), ev)

	if body := resp.Body(); body != nil {
		httputil.WriteJSON(w, resp.StatusCode(), body)
		return
	}
	w.WriteHeader(resp.StatusCode())
}

// buildEvent maps the activity envelope onto a router event. The module
// ID and entity ID may arrive at the top of the value or nested under
// its data object.
func buildEvent(act *Activity, value invoke.Value) *invoke.Event {
	payload := value
	if data := value.Map("data"); len(data) > 0 {
		payload = data
	}

	moduleID := payload.String("taskModule")
	if moduleID == "" {
		moduleID = value.String("taskModule")
	}

	entityID := payload.String("questionId")
	if entityID == "" {
		entityID = value.String("questionId")
	}

	var from *models.Profile
	if act.From.ID != "" {
		from = &models.Profile{UserID: act.From.ID, FirstName: act.From.Name}
	}

	return &invoke.Event{
		Kind:           invoke.KindOf(act.Name),
		ModuleID:       moduleID,
		EntityID:       entityID,
		ConversationID: act.Conversation.ID,
		From:           from,
		Payload:        payload,
	}
}

func (h *Handler) handleComposeQuery(w http.ResponseWriter, act *Activity) {
	var query compose.Query
	if len(act.Value) > 0 {
		if err := json.Unmarshal(act.Value, &query); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid query value")
			return
		}
	}

	if query.CommandID != compose.CommandRandomText {
		httputil.WriteNoContent(w, http.StatusOK)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"composeExtension": compose.RandomText(query),
	})
}

var mentionRe = regexp.MustCompile(`<at>[^<]*</at>`)

// handleMessage serves the ask / questions / help text commands by
// posting a card back into the conversation.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request, act *Activity) {
	ctx := r.Context()
	command := strings.ToLower(strings.TrimSpace(mentionRe.ReplaceAllString(act.Text, "")))

	var (
		card *cards.RenderedCard
		err  error
	)
	switch command {
	case "ask":
		card, err = cards.Render(cards.TemplateAskPrompt, nil)
	case "questions":
		card, err = h.recentQuestionsCard(r)
	default:
		card, err = cards.Render(cards.TemplateHelp, nil)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to render command card",
			"command", command, logging.Error(err))
		httputil.WriteNoContent(w, http.StatusOK)
		return
	}

	if _, err := h.connector.SendCard(ctx, act.Conversation.ID, card); err != nil {
		h.logger.ErrorContext(ctx, "failed to send command card",
			"command", command, logging.ConversationID(act.Conversation.ID), logging.Error(err))
	}

	httputil.WriteNoContent(w, http.StatusOK)
}

func (h *Handler) recentQuestionsCard(r *http.Request) (*cards.RenderedCard, error) {
	questions, err := h.svc.ListRecentQuestions(r.Context(), 5)
	if err != nil {
		return nil, err
	}

	views := make([]cards.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, cards.QuestionView{
			ID:         q.ID,
			Title:      q.Title,
			AuthorName: q.Profile.DisplayName(),
			CreatedAt:  q.CreatedAt,
			AppURL:     h.modules.QuestionURL(q.ID),
		})
	}
	return cards.RecentQuestionsCard(views)
}
