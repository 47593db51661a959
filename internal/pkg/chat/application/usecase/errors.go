package usecase

import (
	"errors"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

var domainErrors = []error{
	chat.ErrNotFound,
	chat.ErrInvalidArgument,
	chat.ErrAlreadyMember,
	chat.ErrNotMember,
	chat.ErrPrivateRoomJoinForbidden,
	chat.ErrPermissionDenied,
	chat.ErrRoomExists,
}

// repoErr keeps domain errors raised by a store and hides everything else
// behind ErrPersistence.
func repoErr(err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

func requireID(name string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s is required", chat.ErrInvalidArgument, name)
	}
	return nil
}
