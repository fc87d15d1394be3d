package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"eventhub/internal/app"
	"eventhub/internal/model"
	"eventhub/internal/transport/http/response"
)

type AdminHandler struct {
	admin    *app.AdminService
	contents *app.ContentService
}

type adminUpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=64"`
	Email       *string `json:"email" binding:"omitempty,max=128"`
	Password    *string `json:"password" binding:"omitempty,max=128"`
	Role        *string `json:"role" binding:"omitempty,oneof=regular admin"`
}

type adminEventsQuery struct {
	From          *time.Time `form:"from"`
	To            *time.Time `form:"to"`
	Location      string     `form:"location" binding:"max=255"`
	OwnerID       uint       `form:"owner_id"`
	ParticipantID uint       `form:"participant_id"`
	Offset        int        `form:"offset" binding:"min=0"`
	Limit         int        `form:"limit" binding:"min=0,max=200"`
}

type activitiesQuery struct {
	Limit int `form:"limit" binding:"min=0,max=500"`
}

type contentRequest struct {
	Key   string `json:"key" binding:"required,max=128"`
	Value string `json:"value"`
}

type contentValueRequest struct {
	Value string `json:"value"`
}

func NewAdminHandler(admin *app.AdminService, contents *app.ContentService) *AdminHandler {
	return &AdminHandler{admin: admin, contents: contents}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}
	users, err := h.admin.ListUsers(c.Request.Context(), p, q.Offset, q.limit())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, users)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	h.userAction(c, h.admin.GetUser)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req adminUpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.admin.UpdateUser(c.Request.Context(), p, id, app.AdminUserPatch{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, user)
}

func (h *AdminHandler) SuspendUser(c *gin.Context) {
	h.userAction(c, h.admin.SuspendUser)
}

func (h *AdminHandler) ReactivateUser(c *gin.Context) {
	h.userAction(c, h.admin.ReactivateUser)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AdminHandler) ListEvents(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var q adminEventsQuery
	if !bindQuery(c, &q) {
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultPageSize
	}

	seq, err := h.admin.ListEvents(c.Request.Context(), p, model.EventFilter{
		From:          q.From,
		To:            q.To,
		Location:      q.Location,
		OwnerID:       q.OwnerID,
		ParticipantID: q.ParticipantID,
		Offset:        q.Offset,
		Limit:         limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	events := make([]model.Event, 0, limit)
	for event, err := range seq {
		if err != nil {
			writeError(c, err)
			return
		}
		events = append(events, event)
	}
	response.OK(c, events)
}

func (h *AdminHandler) DeleteEvent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.ForceDeleteEvent(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AdminHandler) ListActivities(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var q activitiesQuery
	if !bindQuery(c, &q) {
		return
	}
	activities, err := h.admin.ListActivities(c.Request.Context(), p, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, activities)
}

func (h *AdminHandler) ListContent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	contents, err := h.contents.List(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, contents)
}

func (h *AdminHandler) GetContent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	content, err := h.contents.Get(c.Request.Context(), p, c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, content)
}

func (h *AdminHandler) CreateContent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req contentRequest
	if !bindJSON(c, &req) {
		return
	}
	content, err := h.contents.Create(c.Request.Context(), p, req.Key, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, content)
}

func (h *AdminHandler) UpdateContent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req contentValueRequest
	if !bindJSON(c, &req) {
		return
	}
	content, err := h.contents.Update(c.Request.Context(), p, c.Param("key"), req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, content)
}

func (h *AdminHandler) DeleteContent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.contents.Delete(c.Request.Context(), p, c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AdminHandler) userAction(c *gin.Context, op func(ctx context.Context, admin model.Principal, id uint) (*model.User, error)) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := op(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, user)
}
