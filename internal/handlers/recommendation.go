package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediabridge/mediabridge-backend/internal/services"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

// Build returns the authenticated user's per-category recommendations.
func (rh *RecommendationHandler) Build(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	recommendations, err := rh.recommendationService.BuildForUser(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "recommendations_failed", err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recommendations})
}

// Preview builds recommendations from an explicit favorites list without an
// account. Guest onboarding uses this before the first signup.
func (rh *RecommendationHandler) Preview(c *gin.Context) {
	var req struct {
		Favorites []mediaItemRequest `json:"favorites"`
		Dislikes  []mediaItemRequest `json:"dislikes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	favorites := make([]*types.MediaItem, 0, len(req.Favorites))
	for i := range req.Favorites {
		item, err := req.Favorites[i].toMediaItem()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_media_item", err)
			return
		}
		favorites = append(favorites, item)
	}
	dislikes := make([]*types.MediaItem, 0, len(req.Dislikes))
	for i := range req.Dislikes {
		item, err := req.Dislikes[i].toMediaItem()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_media_item", err)
			return
		}
		dislikes = append(dislikes, item)
	}

	recommendations, err := rh.recommendationService.BuildForFavorites(c.Request.Context(), favorites, dislikes)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "recommendations_failed", err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recommendations})
}
