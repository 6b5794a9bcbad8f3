package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"bedflow-backend/internal/apperr"
	"bedflow-backend/internal/assign"
	"bedflow-backend/internal/queue"
	"bedflow-backend/internal/store"
	"bedflow-backend/internal/turnover"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store       *store.Store
	turnovers   *turnover.StateMachine
	equipment   *turnover.EquipmentTracker
	queue       *queue.Manager
	estimator   *queue.Estimator
	coordinator *assign.Coordinator
	webpush     *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(
	s *store.Store,
	sm *turnover.StateMachine,
	eq *turnover.EquipmentTracker,
	qm *queue.Manager,
	est *queue.Estimator,
	coord *assign.Coordinator,
	webpushOptions *webpush.Options,
) *Handler {
	return &Handler{
		store:       s,
		turnovers:   sm,
		equipment:   eq,
		queue:       qm,
		estimator:   est,
		coordinator: coord,
		webpush:     webpushOptions,
	}
}

// abortWithError maps engine errors onto HTTP responses.
func abortWithError(c *gin.Context, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		c.AbortWithStatusJSON(e.HTTPStatus(), gin.H{"error": e.Message})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
