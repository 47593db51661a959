package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-roomchat/internal/pkg/chat/application/usecase"
)

// CreateRoomController handles the group room creation endpoint.
// One controller per endpoint.
type CreateRoomController struct {
	UC *usecase.CreateGroupRoomUseCase
}

func NewCreateRoomController(uc *usecase.CreateGroupRoomUseCase) *CreateRoomController {
	return &CreateRoomController{UC: uc}
}

type roomMemberRequest struct {
	Username string `json:"username"`
}

type createRoomRequest struct {
	RoomName   string              `json:"room_name" binding:"required"`
	RoomMember []roomMemberRequest `json:"room_member"`
}

func (h *CreateRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoomRequest
		if err := bindJSON(c, &req); err != nil {
			writeError(c, err)
			return
		}

		usernames := make([]string, 0, len(req.RoomMember))
		for _, m := range req.RoomMember {
			usernames = append(usernames, m.Username)
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		room, err := h.UC.Execute(ctx, usecase.CreateGroupRoomInput{Name: req.RoomName, Usernames: usernames})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, room)
	}
}
