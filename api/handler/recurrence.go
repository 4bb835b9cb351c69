package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/meetsync/backend/api/transport"
	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/pkg/httpcontext"
	meetingUC "github.com/meetsync/backend/usecase/meeting"
	recurrenceUC "github.com/meetsync/backend/usecase/recurrence"
)

type RecurrenceHandler struct {
	baseHandler
	uc       *recurrenceUC.UseCase
	meetings *meetingUC.UseCase
}

func NewRecurrenceHandler(uc *recurrenceUC.UseCase, meetings *meetingUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *RecurrenceHandler {
	return &RecurrenceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		meetings:    meetings,
	}
}

// @Summary List recurrences
// @Tags recurrences
// @Router /api/v1/recurrences [get]
func (h *RecurrenceHandler) GetRecurrences(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	recurrences, err := h.uc.List(stdCtx,
		parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, recurrences)
}

// @Summary Get recurrence
// @Tags recurrences
// @Router /api/v1/recurrences/{id} [get]
func (h *RecurrenceHandler) GetRecurrence(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	recurrence, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, recurrence)
}

// @Summary Create recurrence
// @Tags recurrences
// @Router /api/v1/recurrences [post]
func (h *RecurrenceHandler) CreateRecurrence(ctx *fasthttp.RequestCtx) {
	recurrence, ok := h.parseRecurrence(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, recurrence)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update recurrence
// @Tags recurrences
// @Router /api/v1/recurrences/{id} [put]
func (h *RecurrenceHandler) UpdateRecurrence(ctx *fasthttp.RequestCtx) {
	recurrence, ok := h.parseRecurrence(ctx)
	if !ok {
		return
	}
	if recurrence.ID == "" {
		if id, ok := ctx.UserValue("id").(string); ok {
			recurrence.ID = id
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, recurrence)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete recurrence
// @Tags recurrences
// @Router /api/v1/recurrences/{id} [delete]
func (h *RecurrenceHandler) DeleteRecurrence(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Get next occurrence date
// @Tags recurrences
// @Router /api/v1/recurrences/{id}/next-date [get]
func (h *RecurrenceHandler) GetNextDate(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	after := time.Now().UTC()
	if raw := string(ctx.QueryArgs().Peek("after")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid after", nil))
			return
		}
		after = parsed.UTC()
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	next, err := h.uc.NextDate(stdCtx, id, after)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{"next_date": next})
}

// @Summary Materialize meetings for candidate dates
// @Tags recurrences
// @Router /api/v1/recurrences/{id}/meetings [post]
func (h *RecurrenceHandler) CreateRecurringMeetings(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	var req transport.MaterializeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid date: "+raw, nil))
			return
		}
		dates = append(dates, parsed.UTC())
	}

	template := domain.Meeting{
		Title:    req.Template.Title,
		Duration: req.Template.Duration,
		Location: req.Template.Location,
		Notes:    req.Template.Notes,
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.meetings.Materialize(stdCtx, id, template, dates)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

func (h *RecurrenceHandler) parseRecurrence(ctx *fasthttp.RequestCtx) (*domain.Recurrence, bool) {
	var req transport.RecurrenceRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}
	return &domain.Recurrence{
		ID:    req.ID,
		Title: req.Title,
		RRule: req.RRule,
	}, true
}
