package insight

import (
	"errors"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/middleware"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/modules/meeting"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	manager *Manager
	logger  *zap.Logger
}

func NewHandler(manager *Manager, logger *zap.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := r.Group("/workflow", authMW)
	g.GET("/modules", h.listModules)
	g.GET("/state", h.state)
	g.POST("/select", h.selectRecord)
	g.POST("/step", h.setStep)
	g.POST("/field", h.updateField)
	g.POST("/correct", h.runCorrection)
	g.POST("/analyze", h.runAnalysis)
	g.POST("/chat", h.sendChat)
	g.POST("/transcript-version", h.setTranscriptVersion)
	g.POST("/module-version", h.setModuleVersion)
}

func (h *Handler) controller(c *gin.Context) *Controller {
	return h.manager.GetOrCreate(middleware.CurrentSessionID(c), middleware.CurrentUserID(c))
}

type selectDTO struct {
	MeetingID string `json:"meeting_id" binding:"required"`
}

type stepDTO struct {
	Step int `json:"step" binding:"required"`
}

type fieldDTO struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type analyzeDTO struct {
	Module string `json:"module" binding:"required"`
}

type chatDTO struct {
	Module  string `json:"module" binding:"required"`
	Message string `json:"message"`
}

type transcriptVersionDTO struct {
	Version int `json:"version" binding:"required"`
}

type moduleVersionDTO struct {
	Module  string `json:"module" binding:"required"`
	Version int    `json:"version" binding:"required"`
}

func (h *Handler) listModules(c *gin.Context) {
	response.OK(c, Modules())
}

func (h *Handler) state(c *gin.Context) {
	response.OK(c, h.controller(c).Snapshot())
}

func (h *Handler) selectRecord(c *gin.Context) {
	var dto selectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	ctl := h.controller(c)
	if err := ctl.SelectRecord(dto.MeetingID); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, ctl.Snapshot())
}

func (h *Handler) setStep(c *gin.Context) {
	var dto stepDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.controller(c).SetStep(Step(dto.Step)); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) updateField(c *gin.Context) {
	var dto fieldDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.controller(c).UpdateField(dto.Field, dto.Value); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) runCorrection(c *gin.Context) {
	v, err := h.controller(c).RunCorrection(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, v)
}

func (h *Handler) runAnalysis(c *gin.Context) {
	var dto analyzeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	v, err := h.controller(c).RunModuleAnalysis(c.Request.Context(), dto.Module)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, v)
}

func (h *Handler) sendChat(c *gin.Context) {
	var dto chatDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	msg, err := h.controller(c).SendModuleChat(c.Request.Context(), dto.Module, dto.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, msg)
}

func (h *Handler) setTranscriptVersion(c *gin.Context) {
	var dto transcriptVersionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.controller(c).SetActiveTranscriptVersion(dto.Version); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) setModuleVersion(c *gin.Context) {
	var dto moduleVersionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.controller(c).SetActiveModuleVersion(dto.Module, dto.Version); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// fail maps workflow errors onto the response envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c)
	case errors.Is(err, errOperationInFlight), errors.Is(err, meeting.ErrVersionConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, errNoRecordSelected),
		errors.Is(err, errEmptyTranscript),
		errors.Is(err, errNoTranscriptVersion),
		errors.Is(err, errEmptyChatInput),
		errors.Is(err, errNoModuleVersion),
		errors.Is(err, errUnknownModule),
		errors.Is(err, errUnknownField),
		errors.Is(err, errUnknownVersion),
		errors.Is(err, errInvalidStep):
		response.UnprocessableEntity(c, err.Error())
	default:
		h.logger.Error("workflow operation failed", zap.Error(err))
		response.InternalError(c, err)
	}
}
