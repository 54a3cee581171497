package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Browse lists candidates for a friend request: everyone except the caller
// and their existing friends, optionally narrowed by a username search.
func (s *UserService) Browse(ctx context.Context, userID uuid.UUID, search string) ([]domain.Profile, error) {
	users, err := s.userRepo.ListNonFriends(ctx, userID, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.Profile{}
	}
	return users, nil
}
