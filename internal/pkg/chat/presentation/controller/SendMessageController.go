package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	From int64  `json:"from" binding:"required"`
	Text string `json:"text"`
}

func bindSendMessage(c *gin.Context) (sendMessageRequest, error) {
	var req sendMessageRequest
	if err := bindJSON(c, &req); err != nil {
		return req, err
	}
	if req.From <= 0 {
		return req, fmt.Errorf("%w: from must be a positive integer", chat.ErrInvalidArgument)
	}
	if _, err := chat.NormalizeText(req.Text); err != nil {
		return req, err
	}
	return req, nil
}

// SendDirectMessageController enqueues a direct message to the user in the path.
type SendDirectMessageController struct {
	Jobs JobDispatcher
}

func NewSendDirectMessageController(jobs JobDispatcher) *SendDirectMessageController {
	return &SendDirectMessageController{Jobs: jobs}
}

// Handle returns a gin handler that enqueues a background job and answers with its id
func (h *SendDirectMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		to, err := pathID(c, "userId")
		if err != nil {
			writeError(c, err)
			return
		}
		req, err := bindSendMessage(c)
		if err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		job, err := h.Jobs.SendDirect(ctx, req.From, to, req.Text)
		if err != nil {
			writeError(c, err)
			return
		}
		writeJob(c, http.StatusAccepted, job)
	}
}

// SendGroupMessageController enqueues a message to the group room in the path.
type SendGroupMessageController struct {
	Jobs JobDispatcher
}

func NewSendGroupMessageController(jobs JobDispatcher) *SendGroupMessageController {
	return &SendGroupMessageController{Jobs: jobs}
}

func (h *SendGroupMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, err := pathID(c, "roomId")
		if err != nil {
			writeError(c, err)
			return
		}
		req, err := bindSendMessage(c)
		if err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := withTimeout(c)
		defer cancel()
		job, err := h.Jobs.SendGroup(ctx, req.From, roomID, req.Text)
		if err != nil {
			writeError(c, err)
			return
		}
		writeJob(c, http.StatusAccepted, job)
	}
}
