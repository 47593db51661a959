package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-roomchat/internal/pkg/chat/application/usecase"
)

// JoinRoomController handles PUT /chatroom/:roomId?user_id=.
type JoinRoomController struct {
	UC *usecase.JoinRoomUseCase
}

func NewJoinRoomController(uc *usecase.JoinRoomUseCase) *JoinRoomController {
	return &JoinRoomController{UC: uc}
}

func (h *JoinRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, userID, err := membershipTarget(c)
		if err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		span, err := h.UC.Execute(ctx, usecase.JoinRoomInput{UserID: userID, RoomID: roomID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, span)
	}
}

// LeaveRoomController handles DELETE /chatroom/:roomId?user_id=.
type LeaveRoomController struct {
	UC *usecase.LeaveRoomUseCase
}

func NewLeaveRoomController(uc *usecase.LeaveRoomUseCase) *LeaveRoomController {
	return &LeaveRoomController{UC: uc}
}

func (h *LeaveRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, userID, err := membershipTarget(c)
		if err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		if _, err := h.UC.Execute(ctx, usecase.LeaveRoomInput{UserID: userID, RoomID: roomID}); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func membershipTarget(c *gin.Context) (roomID, userID int64, err error) {
	roomID, err = pathID(c, "roomId")
	if err != nil {
		return 0, 0, err
	}
	uid, err := queryUserID(c, true)
	if err != nil {
		return 0, 0, err
	}
	return roomID, *uid, nil
}

// MembershipHistoryController handles GET /chatroom/:roomId/history?user_id=.
type MembershipHistoryController struct {
	UC *usecase.MembershipHistoryUseCase
}

func NewMembershipHistoryController(uc *usecase.MembershipHistoryUseCase) *MembershipHistoryController {
	return &MembershipHistoryController{UC: uc}
}

func (h *MembershipHistoryController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, userID, err := membershipTarget(c)
		if err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		history, err := h.UC.Execute(ctx, usecase.MembershipHistoryInput{UserID: userID, RoomID: roomID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}
