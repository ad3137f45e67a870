package logs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusmeet/backend/pkg/response"
)

// Handler exposes the room audit trail.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a logs handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListByRoom handles GET /rooms/:id/logs.
func (h *Handler) ListByRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}
	list, err := h.repo.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("list room logs failed", zap.Error(err), zap.String("room_id", roomID.String()))
		response.Internal(c, "failed to list room logs")
		return
	}
	response.OK(c, list)
}
