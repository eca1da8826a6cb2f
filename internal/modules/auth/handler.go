package auth

import (
	"errors"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/middleware"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Mail     string `json:"mail"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type Handler struct {
	svc *Service
	// onLogout lets other modules drop per-session state when the
	// session ends.
	onLogout func(sessionID string)
}

func NewHandler(svc *Service, onLogout func(sessionID string)) *Handler {
	return &Handler{svc: svc, onLogout: onLogout}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/login", h.login)
	a.POST("/register", h.register)
	a.POST("/logout", authMW, h.logout)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, err := h.svc.Login(dto.Username, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errAuthUserNotFound) || errors.Is(err, errAuthWrongPassword) {
			response.Forbidden(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, loginResponse{Token: token})
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Register(&dto)
	if err != nil {
		if errors.Is(err, errUsernameTaken) {
			response.Conflict(c, err.Error())
			return
		}
		if errors.Is(err, errUsernameOrPassword) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, u)
}

func (h *Handler) logout(c *gin.Context) {
	sessionID := middleware.CurrentSessionID(c)
	if err := h.svc.Logout(middleware.CurrentUserID(c), sessionID); err != nil {
		response.InternalError(c, err)
		return
	}
	if h.onLogout != nil {
		h.onLogout(sessionID)
	}
	response.NoContent(c)
}
