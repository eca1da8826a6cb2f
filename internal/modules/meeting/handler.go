package meeting

import (
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/middleware"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/pkg/pagination"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := r.Group("/meetings", authMW)
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
	g.GET("/:id/transcript-versions", h.listTranscriptVersions)
	g.GET("/:id/module-versions", h.listModuleVersions)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateMeetingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	m, err := h.service.Create(middleware.CurrentUserID(c), dto.Title)
	if err != nil {
		h.logger.Error("failed to create meeting", zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.Created(c, m)
}

func (h *Handler) list(c *gin.Context) {
	meetings, pag, err := h.service.List(middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		h.logger.Error("failed to list meetings", zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.Paged(c, meetings, pag)
}

func (h *Handler) get(c *gin.Context) {
	m, err := h.service.GetByID(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if m == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, m)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateMeetingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	m, err := h.service.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if m == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, m)
}

func (h *Handler) remove(c *gin.Context) {
	err := h.service.Delete(middleware.CurrentUserID(c), c.Param("id"))
	if err == gorm.ErrRecordNotFound {
		response.NotFound(c)
		return
	}
	if err != nil {
		h.logger.Error("failed to delete meeting", zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listTranscriptVersions(c *gin.Context) {
	versions, err := h.service.ListTranscriptVersions(middleware.CurrentUserID(c), c.Param("id"))
	if err == gorm.ErrRecordNotFound {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, versions)
}

func (h *Handler) listModuleVersions(c *gin.Context) {
	versions, err := h.service.ListModuleVersions(middleware.CurrentUserID(c), c.Param("id"))
	if err == gorm.ErrRecordNotFound {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, versions)
}
