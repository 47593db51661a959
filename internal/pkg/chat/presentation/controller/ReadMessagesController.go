package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-roomchat/internal/pkg/chat/application/usecase"
)

// ReadMessagesController returns a room's messages to one of its members and
// schedules marking them seen.
type ReadMessagesController struct {
	UC *usecase.ReadRoomMessagesUseCase
}

func NewReadMessagesController(uc *usecase.ReadRoomMessagesUseCase) *ReadMessagesController {
	return &ReadMessagesController{UC: uc}
}

func (h *ReadMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, userID, err := membershipTarget(c)
		if err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		out, err := h.UC.Execute(ctx, usecase.ReadRoomMessagesInput{UserID: userID, RoomID: roomID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// ListUnseenController returns the caller's unseen messages across active rooms.
type ListUnseenController struct {
	UC *usecase.ListUnseenUseCase
}

func NewListUnseenController(uc *usecase.ListUnseenUseCase) *ListUnseenController {
	return &ListUnseenController{UC: uc}
}

func (h *ListUnseenController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := queryUserID(c, true)
		if err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		out, err := h.UC.Execute(ctx, usecase.ListUnseenInput{UserID: *userID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
