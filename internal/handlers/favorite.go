package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediabridge/mediabridge-backend/internal/requestdata"
	"github.com/mediabridge/mediabridge-backend/internal/services"
)

type FavoriteHandler struct {
	favoriteService services.FavoriteService
}

func NewFavoriteHandler(favoriteService services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

func currentUserID(c *gin.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("no authenticated user in context")
	}
	return rd.UserID, nil
}

func (fh *FavoriteHandler) SaveAndFavorite(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	var req mediaItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	item, err := req.toMediaItem()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_media_item", err)
		return
	}

	persisted, err := fh.favoriteService.SaveAndFavorite(c.Request.Context(), userID, item)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "favorite_failed", err)
		return
	}
	RespondOK(c, gin.H{"item": persisted})
}

func (fh *FavoriteHandler) Unfavorite(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	source := c.Query("source")
	sourceID := c.Query("source_id")
	if source == "" || sourceID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_query", fmt.Errorf("source and source_id are required"))
		return
	}

	if err := fh.favoriteService.Unfavorite(c.Request.Context(), userID, source, sourceID); err != nil {
		RespondError(c, http.StatusInternalServerError, "unfavorite_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (fh *FavoriteHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	favorites, err := fh.favoriteService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "favorites_failed", err)
		return
	}
	RespondOK(c, gin.H{"favorites": favorites})
}

func (fh *FavoriteHandler) Dislike(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	var req mediaItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	item, err := req.toMediaItem()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_media_item", err)
		return
	}

	persisted, err := fh.favoriteService.Dislike(c.Request.Context(), userID, item)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "dislike_failed", err)
		return
	}
	RespondOK(c, gin.H{"item": persisted})
}
