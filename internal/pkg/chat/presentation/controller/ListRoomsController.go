package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-roomchat/internal/pkg/chat/application/usecase"
)

// ListRoomsController lists group rooms, or a user's rooms when ?user_id= is given.
type ListRoomsController struct {
	UC *usecase.ListRoomsUseCase
}

func NewListRoomsController(uc *usecase.ListRoomsUseCase) *ListRoomsController {
	return &ListRoomsController{UC: uc}
}

func (h *ListRoomsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := queryUserID(c, false)
		if err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		rooms, err := h.UC.Execute(ctx, usecase.ListRoomsInput{UserID: userID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rooms)
	}
}
