package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediabridge/mediabridge-backend/internal/services"
)

type WrappedHandler struct {
	wrappedService services.WrappedService
}

func NewWrappedHandler(wrappedService services.WrappedService) *WrappedHandler {
	return &WrappedHandler{wrappedService: wrappedService}
}

func (wh *WrappedHandler) Insights(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	insights, err := wh.wrappedService.Insights(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "wrapped_failed", err)
		return
	}
	if insights == nil {
		RespondOK(c, gin.H{"insights": nil, "reason": "not enough favorites"})
		return
	}
	RespondOK(c, gin.H{"insights": insights})
}
