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
	"github.com/meetsync/backend/repository"
	meetingUC "github.com/meetsync/backend/usecase/meeting"
)

type MeetingHandler struct {
	baseHandler
	uc *meetingUC.UseCase
}

func NewMeetingHandler(uc *meetingUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *MeetingHandler {
	return &MeetingHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List meetings
// @Tags meetings
// @Router /api/v1/meetings [get]
func (h *MeetingHandler) GetMeetings(ctx *fasthttp.RequestCtx) {
	filter := repository.MeetingFilter{
		RecurrenceID: string(ctx.QueryArgs().Peek("recurrence_id")),
		Limit:        parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:       parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}
	if after := string(ctx.QueryArgs().Peek("after")); after != "" {
		if parsed, err := time.Parse(time.RFC3339, after); err == nil {
			filter.After = parsed
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	meetings, err := h.uc.ListMeetings(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, meetings)
}

// @Summary Get meeting
// @Tags meetings
// @Router /api/v1/meetings/{id} [get]
func (h *MeetingHandler) GetMeeting(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	meeting, err := h.uc.GetMeeting(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, meeting)
}

// @Summary Create meeting
// @Tags meetings
// @Router /api/v1/meetings [post]
func (h *MeetingHandler) CreateMeeting(ctx *fasthttp.RequestCtx) {
	meeting, ok := h.parseMeeting(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateMeeting(stdCtx, meeting)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update meeting
// @Tags meetings
// @Router /api/v1/meetings/{id} [put]
func (h *MeetingHandler) UpdateMeeting(ctx *fasthttp.RequestCtx) {
	meeting, ok := h.parseMeeting(ctx)
	if !ok {
		return
	}
	if meeting.ID == "" {
		if id, ok := ctx.UserValue("id").(string); ok {
			meeting.ID = id
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateMeeting(stdCtx, meeting)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete meeting
// @Tags meetings
// @Router /api/v1/meetings/{id} [delete]
func (h *MeetingHandler) DeleteMeeting(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteMeeting(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Complete meeting
// @Tags meetings
// @Router /api/v1/meetings/{id}/complete [post]
func (h *MeetingHandler) CompleteMeeting(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	meeting, err := h.uc.Complete(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, meeting)
}

// @Summary Get the next meeting in the recurrence chain
// @Tags meetings
// @Router /api/v1/meetings/{id}/next [get]
func (h *MeetingHandler) GetSubsequentMeeting(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	meeting, err := h.uc.GetSubsequent(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, meeting)
}

// @Summary Add attendees to a meeting
// @Tags meetings
// @Router /api/v1/meetings/{id}/attendees [post]
func (h *MeetingHandler) AddAttendees(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	var req transport.AddAttendeesRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || len(req.UserIDs) == 0 {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.AddAttendees(stdCtx, id, req.UserIDs); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary List meeting attendees
// @Tags meetings
// @Router /api/v1/meetings/{id}/attendees [get]
func (h *MeetingHandler) GetAttendees(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.GetAttendees(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, users)
}

func (h *MeetingHandler) parseMeeting(ctx *fasthttp.RequestCtx) (*domain.Meeting, bool) {
	var req transport.MeetingRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}

	meeting := &domain.Meeting{
		ID:           req.ID,
		RecurrenceID: req.RecurrenceID,
		Title:        req.Title,
		Duration:     req.Duration,
		Location:     req.Location,
		Notes:        req.Notes,
	}
	if req.StartTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid start_time", nil))
			return nil, false
		}
		meeting.StartTime = parsed.UTC()
	}
	return meeting, true
}

func (h *baseHandler) pathID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing id", nil))
		return "", false
	}
	return id, true
}
