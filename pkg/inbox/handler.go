package inbox

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/notifyplan/pkg/broadcast"
	"github.com/dmitrymomot/notifyplan/pkg/logger"
	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// RecipientHeader is read by the default RecipientFunc.
const RecipientHeader = "X-Recipient-ID"

// RecipientFunc identifies the recipient a request acts for.
type RecipientFunc func(r *http.Request) (string, error)

// Handler serves the in-app inbox of the requesting recipient.
type Handler struct {
	storage   notifications.Storage
	hub       broadcast.Hub
	recipient RecipientFunc
	logger    *slog.Logger
	pageSize  int
	maxPage   int
}

// Option configures a Handler.
type Option func(*Handler)

// WithRecipientFunc replaces the header based recipient lookup.
func WithRecipientFunc(fn RecipientFunc) Option {
	return func(h *Handler) {
		if fn != nil {
			h.recipient = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithPageSize sets the default and maximum list sizes. Non-positive values
// keep the current setting; the default never exceeds the maximum.
func WithPageSize(def, limit int) Option {
	return func(h *Handler) {
		if def > 0 {
			h.pageSize = def
		}
		if limit > 0 {
			h.maxPage = limit
		}
		h.pageSize = min(h.pageSize, h.maxPage)
	}
}

// NewHandler creates an inbox handler. hub may be nil, in which case the
// stream endpoint is not mounted.
func NewHandler(storage notifications.Storage, hub broadcast.Hub, opts ...Option) *Handler {
	h := &Handler{
		storage:   storage,
		hub:       hub,
		recipient: headerRecipient,
		logger:    logger.Nop(),
		pageSize:  20,
		maxPage:   100,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns the inbox routes:
//
//	GET  /            list notifications (?unread=true&limit=N)
//	POST /read        mark all as read
//	POST /{id}/read   mark one as read
//	GET  /stream      datastar SSE stream of new notifications
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/read", h.readAll)
	r.Post("/{id}/read", h.readOne)
	if h.hub != nil {
		r.Get("/stream", h.stream)
	}
	return r
}

func headerRecipient(r *http.Request) (string, error) {
	if id := r.Header.Get(RecipientHeader); id != "" {
		return id, nil
	}
	return "", ErrMissingRecipient
}

func (h *Handler) recipientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := h.recipient(r)
	if err != nil || id == "" {
		h.fail(w, r, errUnauthorized)
		return "", false
	}
	return id, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := h.recipientID(w, r)
	if !ok {
		return
	}

	limit := h.pageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.fail(w, r, errBadRequest)
			return
		}
		limit = min(n, h.maxPage)
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	ctx := r.Context()
	recs, err := h.storage.Find(ctx,
		notifications.Filter{RecipientID: recipientID, Unread: unreadOnly},
		notifications.FindOptions{OrderBy: notifications.OrderCreatedDesc, Limit: limit},
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	unread, err := h.storage.Count(ctx, notifications.Filter{RecipientID: recipientID, Unread: true})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if recs == nil {
		recs = []notifications.Record{}
	}
	_ = writeJSON(w, http.StatusOK, Response{
		Code: "ok",
		Data: recs,
		Meta: map[string]any{"unread": unread, "limit": limit},
	})
}

func (h *Handler) readOne(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := h.recipientID(w, r)
	if !ok {
		return
	}

	read := true
	err := h.storage.Update(r.Context(),
		notifications.Filter{IDs: []string{chi.URLParam(r, "id")}, RecipientID: recipientID},
		notifications.Changes{Read: &read},
	)
	if errors.Is(err, notifications.ErrNotificationNotFound) {
		h.fail(w, r, errNotFound)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) readAll(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := h.recipientID(w, r)
	if !ok {
		return
	}

	read := true
	if err := h.storage.UpdateMany(r.Context(),
		notifications.Filter{RecipientID: recipientID, Unread: true},
		notifications.Changes{Read: &read},
	); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := h.recipientID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	sub, err := h.hub.Subscribe(ctx, recipientID)
	if err != nil {
		h.fail(w, r, errors.Join(ErrStreamingFailed, err))
		return
	}
	defer sub.Close()

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-sub.Receive():
			if !ok {
				return
			}
			if err := sse.PatchElementTempl(Item(rec),
				datastar.WithSelector(ListSelector),
				datastar.WithMode(datastar.ElementPatchModePrepend),
			); err != nil {
				h.logger.LogAttrs(ctx, slog.LevelWarn, "Inbox stream write failed",
					logger.UserID(recipientID),
					logger.NotificationID(rec.ID),
					logger.Error(err),
				)
				return
			}
		}
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr HTTPError
	if !errors.As(err, &httpErr) {
		h.logger.LogAttrs(r.Context(), slog.LevelError, "Inbox request failed",
			logger.Component("inbox"),
			logger.Error(err),
		)
	}
	_ = writeError(w, err)
}
