package service

import (
	"context"
	"log/slog"

	"socialfeed/internal/events"
	"socialfeed/internal/middleware"
	"socialfeed/internal/models"
	"socialfeed/internal/notifications"
	"socialfeed/internal/observability"
	"socialfeed/internal/repository"
)

// LikeService toggles likes on posts and comments.
type LikeService struct {
	likeRepo    repository.LikeRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	notifier    *notifications.Notifier
	events      events.Publisher
}

// NewLikeService returns a new LikeService. notifier and pub may be nil.
func NewLikeService(
	likeRepo repository.LikeRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	notifier *notifications.Notifier,
	pub events.Publisher,
) *LikeService {
	return &LikeService{
		likeRepo:    likeRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		notifier:    notifier,
		events:      pub,
	}
}

// Toggle likes target for userID if not yet liked, otherwise removes the like.
func (s *LikeService) Toggle(ctx context.Context, userID uint, target models.LikeTarget) (models.LikeResult, error) {
	if !target.Valid() {
		return models.LikeResult{}, models.NewValidationError("Invalid like target")
	}

	res, err := s.likeRepo.Toggle(ctx, userID, target)
	if err != nil {
		return models.LikeResult{}, err
	}

	outcome := "unliked"
	if res.Liked {
		outcome = "liked"
	}
	observability.LikeToggles.WithLabelValues(string(target.Kind), outcome).Inc()

	evType := likeEventType(target.Kind, res.Liked)
	events.Emit(ctx, s.events, events.New(evType, userID, target.ID, map[string]any{
		"total_likes": res.TotalLikes,
	}))
	if res.Liked {
		s.notifyOwner(ctx, userID, target, evType, res)
	}
	return res, nil
}

// Status reports whether userID likes target and the target's like total.
func (s *LikeService) Status(ctx context.Context, userID uint, target models.LikeTarget) (models.LikeResult, error) {
	if !target.Valid() {
		return models.LikeResult{}, models.NewValidationError("Invalid like target")
	}
	if _, err := s.ownerOf(ctx, target); err != nil {
		return models.LikeResult{}, err
	}

	liked, err := s.likeRepo.IsLiked(ctx, userID, target)
	if err != nil {
		return models.LikeResult{}, err
	}
	total, err := s.likeRepo.Count(ctx, target)
	if err != nil {
		return models.LikeResult{}, err
	}
	return models.LikeResult{Liked: liked, TotalLikes: total}, nil
}

func likeEventType(kind models.LikeKind, liked bool) events.Type {
	switch {
	case kind == models.LikeKindComment && liked:
		return events.CommentLiked
	case kind == models.LikeKindComment:
		return events.CommentUnliked
	case liked:
		return events.PostLiked
	default:
		return events.PostUnliked
	}
}

func (s *LikeService) notifyOwner(ctx context.Context, userID uint, target models.LikeTarget, evType events.Type, res models.LikeResult) {
	ownerID, err := s.ownerOf(ctx, target)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "like owner lookup failed", slog.String("target", target.String()), slog.String("error", err.Error()))
		return
	}
	if ownerID == userID {
		return
	}
	payload := map[string]any{
		"user_id":     userID,
		"target":      target.Kind,
		"target_id":   target.ID,
		"total_likes": res.TotalLikes,
	}
	if err := s.notifier.Notify(ctx, ownerID, string(evType), payload); err != nil {
		middleware.Logger.WarnContext(ctx, "like notification failed", slog.String("target", target.String()), slog.String("error", err.Error()))
	}
}

func (s *LikeService) ownerOf(ctx context.Context, target models.LikeTarget) (uint, error) {
	if target.Kind == models.LikeKindComment {
		c, err := s.commentRepo.GetByID(ctx, target.ID, 0)
		if err != nil {
			return 0, err
		}
		return c.UserID, nil
	}
	p, err := s.postRepo.GetByID(ctx, target.ID, 0)
	if err != nil {
		return 0, err
	}
	return p.UserID, nil
}
