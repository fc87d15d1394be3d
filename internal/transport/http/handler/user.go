package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventhub/internal/app"
	"eventhub/internal/transport/http/response"
)

const birthDateLayout = "2006-01-02"

type UserHandler struct {
	users *app.UserService
}

type updateAccountRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=64"`
	Email       *string `json:"email" binding:"omitempty,max=128"`
}

type updateProfileRequest struct {
	BirthDate           *string  `json:"birth_date"`
	Gender              *string  `json:"gender" binding:"omitempty,max=32"`
	Interests           []string `json:"interests" binding:"omitempty,max=50,dive,max=64"`
	OnboardingCompleted *bool    `json:"onboarding_completed"`
	ProfilePhotoURL     *string  `json:"profile_photo_url" binding:"omitempty,max=512"`
}

type imageRequest struct {
	URL string `json:"url" binding:"max=512"`
}

func NewUserHandler(users *app.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}
	users, err := h.users.ListUsers(c.Request.Context(), q.Offset, q.limit())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *UserHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), p.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req updateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.UpdateAccount(c.Request.Context(), p, app.AccountPatch{
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Profile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	profile, err := h.users.GetProfile(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := app.ProfilePatch{
		Gender:              req.Gender,
		Interests:           req.Interests,
		OnboardingCompleted: req.OnboardingCompleted,
		ProfilePhotoURL:     req.ProfilePhotoURL,
	}
	if req.BirthDate != nil {
		birthDate, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeValidation, "birth_date must be YYYY-MM-DD")
			return
		}
		patch.BirthDate = &birthDate
	}

	profile, err := h.users.UpdateProfile(c.Request.Context(), p, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, profile)
}

func (h *UserHandler) SetPhoto(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req imageRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.SetProfilePhoto(c.Request.Context(), p, req.URL)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Onboarding(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	completed, err := h.users.OnboardingStatus(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"onboarding_completed": completed})
}
