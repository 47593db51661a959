package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"go-roomchat/internal/pkg/chat/application/usecase"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	"go-roomchat/internal/pkg/chat/presentation/controller"
	userport "go-roomchat/internal/repository/port"
)

// Dispatcher submits async chat work and schedules seen-marking.
type Dispatcher interface {
	controller.JobDispatcher
	usecase.SeenScheduler
}

// Services are the use cases behind the chat endpoints.
type Services struct {
	CreateRoom   *usecase.CreateGroupRoomUseCase
	ListRooms    *usecase.ListRoomsUseCase
	GetRoom      *usecase.GetRoomUseCase
	JoinRoom     *usecase.JoinRoomUseCase
	LeaveRoom    *usecase.LeaveRoomUseCase
	History      *usecase.MembershipHistoryUseCase
	ReadMessages *usecase.ReadRoomMessagesUseCase
	ListUnseen   *usecase.ListUnseenUseCase
	Jobs         controller.JobDispatcher
}

// NewServices builds every chat use case over the same store, directory and cache.
func NewServices(repo repository.ChatRepository, users userport.UserRepository, cache *usecase.RoomCache, jobs Dispatcher, log zerolog.Logger) Services {
	return Services{
		CreateRoom:   usecase.NewCreateGroupRoomUseCase(repo, users, cache, log),
		ListRooms:    usecase.NewListRoomsUseCase(repo, users, cache),
		GetRoom:      usecase.NewGetRoomUseCase(repo, users, cache),
		JoinRoom:     usecase.NewJoinRoomUseCase(repo, users, cache, log),
		LeaveRoom:    usecase.NewLeaveRoomUseCase(repo, users, cache, log),
		History:      usecase.NewMembershipHistoryUseCase(repo, users),
		ReadMessages: usecase.NewReadRoomMessagesUseCase(repo, users, jobs, log),
		ListUnseen:   usecase.NewListUnseenUseCase(repo, users, jobs, log),
		Jobs:         jobs,
	}
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, svc Services) {
	// POST /api/v1/chatroom -> create a group room
	g.POST("/chatroom", controller.NewCreateRoomController(svc.CreateRoom).Handle())

	// GET /api/v1/chatroom[?user_id=] -> list group rooms or a user's rooms
	g.GET("/chatroom", controller.NewListRoomsController(svc.ListRooms).Handle())

	// GET /api/v1/chatroom/:roomId[?user_id=] -> read a group room
	g.GET("/chatroom/:roomId", controller.NewGetRoomController(svc.GetRoom).Handle())

	// PUT / DELETE /api/v1/chatroom/:roomId?user_id= -> join / leave
	g.PUT("/chatroom/:roomId", controller.NewJoinRoomController(svc.JoinRoom).Handle())
	g.DELETE("/chatroom/:roomId", controller.NewLeaveRoomController(svc.LeaveRoom).Handle())

	// GET /api/v1/chatroom/:roomId/history?user_id= -> a user's membership spans
	g.GET("/chatroom/:roomId/history", controller.NewMembershipHistoryController(svc.History).Handle())

	// POST /api/v1/user/:userId -> enqueue a direct message
	g.POST("/user/:userId", controller.NewSendDirectMessageController(svc.Jobs).Handle())

	// POST /api/v1/group/:roomId -> enqueue a group message
	g.POST("/group/:roomId", controller.NewSendGroupMessageController(svc.Jobs).Handle())

	// GET /api/v1/messages/unseen?user_id= -> unseen messages across rooms
	g.GET("/messages/unseen", controller.NewListUnseenController(svc.ListUnseen).Handle())

	// GET /api/v1/messages/:roomId?user_id= -> messages of a room
	g.GET("/messages/:roomId", controller.NewReadMessagesController(svc.ReadMessages).Handle())

	// GET /api/v1/jobs/:jobId -> poll a job
	g.GET("/jobs/:jobId", controller.NewJobStatusController(svc.Jobs).Handle())
}
