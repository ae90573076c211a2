package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediabridge/mediabridge-backend/internal/services"
)

type TrendingHandler struct {
	trendingService services.TrendingService
}

func NewTrendingHandler(trendingService services.TrendingService) *TrendingHandler {
	return &TrendingHandler{trendingService: trendingService}
}

func (th *TrendingHandler) Trending(c *gin.Context) {
	pools, err := th.trendingService.Pools(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "trending_failed", err)
		return
	}
	RespondOK(c, gin.H{"trending": pools})
}
