// Package service holds the application's business rules on top of the repositories.
package service

import (
	"context"
	"log/slog"

	"socialfeed/internal/cache"
	"socialfeed/internal/events"
	"socialfeed/internal/middleware"
	"socialfeed/internal/models"
	"socialfeed/internal/notifications"
	"socialfeed/internal/observability"
	"socialfeed/internal/repository"
)

// FollowService manages the directed follow graph.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	cache      *cache.Cache
	notifier   *notifications.Notifier
	events     events.Publisher
}

// NewFollowService returns a new FollowService. c, notifier and pub may be nil.
func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	c *cache.Cache,
	notifier *notifications.Notifier,
	pub events.Publisher,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		cache:      c,
		notifier:   notifier,
		events:     pub,
	}
}

// Follow makes actorID follow targetID. Following someone already followed is a no-op.
func (s *FollowService) Follow(ctx context.Context, actorID, targetID uint) (models.FollowState, error) {
	if actorID == targetID {
		return models.FollowState{}, models.NewInvalidOperationError("You cannot follow yourself")
	}

	state, created, err := s.followRepo.Follow(ctx, actorID, targetID)
	if err != nil {
		return models.FollowState{}, err
	}
	observability.FollowEvents.WithLabelValues("follow").Inc()

	if created {
		s.cache.Invalidate(ctx, cache.FollowingKey(actorID))
		s.notify(ctx, targetID, string(events.UserFollowed), map[string]any{"follower_id": actorID})
		events.Emit(ctx, s.events, events.New(events.UserFollowed, actorID, targetID, map[string]any{
			"followers_count": state.FollowersCount,
		}))
	}
	return state, nil
}

// Unfollow removes the edge actorID -> targetID. Unfollowing someone not followed is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID uint) (models.FollowState, error) {
	if actorID == targetID {
		return models.FollowState{}, models.NewInvalidOperationError("You cannot unfollow yourself")
	}

	state, removed, err := s.followRepo.Unfollow(ctx, actorID, targetID)
	if err != nil {
		return models.FollowState{}, err
	}
	observability.FollowEvents.WithLabelValues("unfollow").Inc()

	if removed {
		s.cache.Invalidate(ctx, cache.FollowingKey(actorID))
		events.Emit(ctx, s.events, events.New(events.UserUnfollowed, actorID, targetID, map[string]any{
			"followers_count": state.FollowersCount,
		}))
	}
	return state, nil
}

// IsFollowing reports whether followerID follows followeeID. An unknown followee is NotFound.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if err := s.ensureUser(ctx, followeeID); err != nil {
		return false, err
	}
	return s.followRepo.IsFollowing(ctx, followerID, followeeID)
}

// Followers lists the users following userID.
func (s *FollowService) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.followRepo.Followers(ctx, userID, limit, offset)
}

// Following lists the users userID follows.
func (s *FollowService) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.followRepo.Following(ctx, userID, limit, offset)
}

func (s *FollowService) ensureUser(ctx context.Context, userID uint) error {
	_, err := s.userRepo.GetByID(ctx, userID)
	return err
}

func (s *FollowService) notify(ctx context.Context, userID uint, eventType string, payload any) {
	if err := s.notifier.Notify(ctx, userID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "follow notification failed",
			slog.Uint64("target_user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
}
