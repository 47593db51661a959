package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-roomchat/internal/pkg/chat/application/usecase"
)

type GetRoomController struct {
	UC *usecase.GetRoomUseCase
}

func NewGetRoomController(uc *usecase.GetRoomUseCase) *GetRoomController {
	return &GetRoomController{UC: uc}
}

func (h *GetRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, err := pathID(c, "roomId")
		if err != nil {
			writeError(c, err)
			return
		}
		userID, err := queryUserID(c, false)
		if err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		room, err := h.UC.Execute(ctx, usecase.GetRoomInput{RoomID: roomID, UserID: userID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, room)
	}
}
