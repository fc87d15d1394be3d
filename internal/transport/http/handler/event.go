package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventhub/internal/app"
	"eventhub/internal/model"
	"eventhub/internal/transport/http/response"
)

const (
	scopeAll      = "all"
	scopeMine     = "my"
	scopeJoined   = "joined"
	scopeUpcoming = "upcoming"
	scopePast     = "past"
)

type EventHandler struct {
	events *app.EventService
	now    func() time.Time
}

type createEventRequest struct {
	Title           string    `json:"title" binding:"max=200"`
	Description     string    `json:"description" binding:"max=10000"`
	Location        string    `json:"location" binding:"max=255"`
	StartsAt        time.Time `json:"starts_at"`
	MaxParticipants *int      `json:"max_participants"`
	ImageURL        string    `json:"image_url" binding:"max=512"`
}

type updateEventRequest struct {
	Title           *string    `json:"title" binding:"omitempty,max=200"`
	Description     *string    `json:"description" binding:"omitempty,max=10000"`
	Location        *string    `json:"location" binding:"omitempty,max=255"`
	StartsAt        *time.Time `json:"starts_at"`
	MaxParticipants *int       `json:"max_participants"`
	ImageURL        *string    `json:"image_url" binding:"omitempty,max=512"`
}

type listEventsQuery struct {
	Scope    string     `form:"scope" binding:"omitempty,oneof=all my joined upcoming past"`
	From     *time.Time `form:"from"`
	To       *time.Time `form:"to"`
	Location string     `form:"location" binding:"max=255"`
	OwnerID  uint       `form:"owner_id"`
	Offset   int        `form:"offset" binding:"min=0"`
	Limit    int        `form:"limit" binding:"min=0,max=200"`
}

func NewEventHandler(events *app.EventService) *EventHandler {
	return &EventHandler{events: events, now: time.Now}
}

func (h *EventHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var q listEventsQuery
	if !bindQuery(c, &q) {
		return
	}
	filter, ok := h.filterFor(c, p, q)
	if !ok {
		return
	}

	views, err := h.events.ListEventViews(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, views)
}

// filterFor turns the scope preset and explicit bounds into a filter.
// Explicit from/to narrow a preset further.
func (h *EventHandler) filterFor(c *gin.Context, p model.Principal, q listEventsQuery) (model.EventFilter, bool) {
	filter := model.EventFilter{
		From:     q.From,
		To:       q.To,
		Location: q.Location,
		OwnerID:  q.OwnerID,
		Offset:   q.Offset,
		Limit:    q.Limit,
	}
	if filter.Limit == 0 {
		filter.Limit = defaultPageSize
	}

	now := h.now().UTC()
	switch q.Scope {
	case "", scopeAll:
	case scopeMine:
		filter.OwnerID = p.ID
	case scopeJoined:
		filter.ParticipantID = p.ID
	case scopeUpcoming:
		if filter.From == nil || filter.From.Before(now) {
			filter.From = &now
		}
	case scopePast:
		if filter.To == nil || filter.To.After(now) {
			filter.To = &now
		}
	}

	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "from must be before to")
		return model.EventFilter{}, false
	}
	return filter, true
}

func (h *EventHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req createEventRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.events.CreateEvent(c.Request.Context(), p, app.EventInput{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		StartsAt:        req.StartsAt,
		MaxParticipants: req.MaxParticipants,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, view)
}

func (h *EventHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *EventHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.events.UpdateEvent(c.Request.Context(), p, id, app.EventPatch{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		StartsAt:        req.StartsAt,
		MaxParticipants: req.MaxParticipants,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *EventHandler) SetImage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req imageRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.events.SetEventImage(c.Request.Context(), p, id, req.URL)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *EventHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.events.DeleteEvent(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *EventHandler) Join(c *gin.Context) {
	h.membership(c, h.events.JoinEvent)
}

func (h *EventHandler) Leave(c *gin.Context) {
	h.membership(c, h.events.LeaveEvent)
}

func (h *EventHandler) Participants(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ids, err := h.events.Participants(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if ids == nil {
		ids = []uint{}
	}
	response.OK(c, gin.H{"event_id": id, "participants": ids, "participant_count": len(ids)})
}

// membership runs a join or leave and answers with the refreshed event.
func (h *EventHandler) membership(c *gin.Context, op func(ctx context.Context, actor model.Principal, id uint) error) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := op(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	view, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, view)
}
