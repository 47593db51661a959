package chat

import "errors"

// Domain-level errors for chat behaviors
var (
	ErrNotFound                 = errors.New("chat: not found")
	ErrInvalidArgument          = errors.New("chat: invalid argument")
	ErrAlreadyMember            = errors.New("chat: user is already a member of the room")
	ErrNotMember                = errors.New("chat: user is not a member of the room")
	ErrPrivateRoomJoinForbidden = errors.New("chat: can't join a private chat")
	ErrPermissionDenied         = errors.New("chat: sender is not an active member of the room")
	ErrRoomExists               = errors.New("chat: a room with the same identity already exists")
)

// Stable error codes exposed to HTTP clients and job results.
const (
	CodeNotFound                 = "not_found"
	CodeInvalidArgument          = "invalid_argument"
	CodeAlreadyMember            = "already_member"
	CodeNotMember                = "not_member"
	CodePrivateRoomJoinForbidden = "private_room_join_forbidden"
	CodePermissionDenied         = "permission_denied"
	CodeRoomExists               = "room_exists"
	CodeInternal                 = "internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrNotFound, CodeNotFound},
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrAlreadyMember, CodeAlreadyMember},
	{ErrNotMember, CodeNotMember},
	{ErrPrivateRoomJoinForbidden, CodePrivateRoomJoinForbidden},
	{ErrPermissionDenied, CodePermissionDenied},
	{ErrRoomExists, CodeRoomExists},
}

// ErrorCode maps err onto its stable code. Anything outside the taxonomy is internal.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
