package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/service"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// RegisterRoutes: everything here needs authentication; the /me pair is
// open to every role, the rest is admin-gated in the service.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, authRequired gin.HandlerFunc) {
	rg.GET("/me", authRequired, h.GetMe)
	rg.PATCH("/me", authRequired, h.UpdateMe)

	rg.GET("", authRequired, h.List)
	rg.POST("", authRequired, h.Create)
	rg.GET("/:username", authRequired, h.Get)
	rg.PATCH("/:username", authRequired, h.Update)
	rg.DELETE("/:username", authRequired, h.Delete)
}

// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.svc.GetMe(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(*user))
}

// UpdateMe edits the actor's own profile; the role field is not accepted
// on this path.
// PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var in dto.UpdateProfileDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.UpdateMe(actor, service.ProfileUpdate{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(*user))
}

// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	users, err := h.svc.List(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, dto.UserFromModel(user))
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var in dto.CreateUserDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Create(actor, in.Username, in.Email, service.AdminUserInput{
		ProfileUpdate: service.ProfileUpdate{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Bio:       in.Bio,
		},
		Role: in.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.UserFromModel(*user))
}

// GET /api/v1/users/:username
func (h *UserHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.svc.Get(actor, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(*user))
}

// PATCH /api/v1/users/:username
func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var in dto.AdminUpdateUserDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Update(actor, c.Param("username"), service.AdminUserInput{
		ProfileUpdate: service.ProfileUpdate{
			Username:  in.Username,
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Bio:       in.Bio,
		},
		Role: in.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(*user))
}

// DELETE /api/v1/users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(actor, c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
