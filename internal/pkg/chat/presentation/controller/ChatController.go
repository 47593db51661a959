package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

// requestTimeout bounds the store work done on behalf of one request.
const requestTimeout = 3 * time.Second

// JobDispatcher is the async surface the controllers submit work to.
type JobDispatcher interface {
	SendDirect(ctx context.Context, from, to int64, text string) (chat.Job, error)
	SendGroup(ctx context.Context, from, roomID int64, text string) (chat.Job, error)
	Status(ctx context.Context, jobID string) (chat.Job, error)
}

var statusByCode = map[string]int{
	chat.CodeNotFound:                 http.StatusNotFound,
	chat.CodeInvalidArgument:          http.StatusBadRequest,
	chat.CodeAlreadyMember:            http.StatusConflict,
	chat.CodeNotMember:                http.StatusConflict,
	chat.CodePrivateRoomJoinForbidden: http.StatusBadRequest,
	chat.CodePermissionDenied:         http.StatusForbidden,
	chat.CodeRoomExists:               http.StatusConflict,
}

// writeError renders err as {"code", "error"} with the status of its code.
// Internal faults never leak their message.
func writeError(c *gin.Context, err error) {
	code := chat.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": chat.CodeInternal, "error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"code": code, "error": err.Error()})
}

// writeJob renders job and hints a re-poll while it is still pending.
func writeJob(c *gin.Context, status int, job chat.Job) {
	if !job.State.Terminal() {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, job)
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", chat.ErrInvalidArgument, name)
	}
	return id, nil
}

func pathID(c *gin.Context, name string) (int64, error) {
	return parseID(name, c.Param(name))
}

// queryUserID reads ?user_id=. A missing value yields nil unless required.
func queryUserID(c *gin.Context, required bool) (*int64, error) {
	raw, ok := c.GetQuery("user_id")
	if !ok || strings.TrimSpace(raw) == "" {
		if required {
			return nil, fmt.Errorf("%w: user_id is required", chat.ErrInvalidArgument)
		}
		return nil, nil
	}
	id, err := parseID("user_id", raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("%w: %v", chat.ErrInvalidArgument, err)
	}
	return nil
}

func withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}
