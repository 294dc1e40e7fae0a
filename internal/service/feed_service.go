package service

import (
	"context"
	"slices"

	"socialfeed/internal/cache"
	"socialfeed/internal/featureflags"
	"socialfeed/internal/models"
	"socialfeed/internal/observability"
	"socialfeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedKind selects the feed ordering.
type FeedKind string

const (
	// FeedLatest orders by created_at DESC, id DESC.
	FeedLatest FeedKind = "latest"
	// FeedTrending orders by like count, then newest first.
	FeedTrending FeedKind = "trending"
)

// FeedService builds a user's home feed: posts by the user and everyone they follow.
type FeedService struct {
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	cache      *cache.Cache
	flags      *featureflags.Manager
	pagination Pagination
}

// NewFeedService returns a new FeedService. c and flags may be nil.
func NewFeedService(
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	c *cache.Cache,
	flags *featureflags.Manager,
	pagination Pagination,
) *FeedService {
	return &FeedService{
		postRepo:   postRepo,
		followRepo: followRepo,
		cache:      c,
		flags:      flags,
		pagination: pagination,
	}
}

// Feed returns one page of userID's feed.
func (s *FeedService) Feed(ctx context.Context, userID uint, kind FeedKind, page, pageSize int) (models.Page[models.Post], error) {
	req, err := s.pagination.Request(page, pageSize)
	if err != nil {
		return models.Page[models.Post]{}, err
	}

	ctx, end := observability.StartSpan(ctx, "feed.query",
		attribute.String("feed.kind", string(kind)),
		attribute.Int("feed.page", req.Page),
	)
	defer observability.TrackFeedQuery(string(kind))()

	result, err := s.query(ctx, userID, kind, req)
	end(err)
	return result, err
}

func (s *FeedService) query(ctx context.Context, userID uint, kind FeedKind, req models.PageRequest) (models.Page[models.Post], error) {
	authors, err := s.AuthorSet(ctx, userID)
	if err != nil {
		return models.Page[models.Post]{}, err
	}

	var (
		posts []models.Post
		total int64
	)
	switch kind {
	case FeedTrending:
		posts, total, err = s.postRepo.TrendingByAuthors(ctx, authors, req.PageSize, req.Offset(), userID)
	default:
		posts, total, err = s.postRepo.ListByAuthors(ctx, authors, req.PageSize, req.Offset(), userID)
	}
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return pageOf(posts, total, req)
}

// AuthorSet returns the ids whose posts appear in userID's feed: everyone userID
// follows plus userID. The set is sorted and never empty.
func (s *FeedService) AuthorSet(ctx context.Context, userID uint) ([]uint, error) {
	following, err := s.followingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	authors := append(slices.Clone(following), userID)
	slices.Sort(authors)
	return slices.Compact(authors), nil
}

func (s *FeedService) followingIDs(ctx context.Context, userID uint) ([]uint, error) {
	if !s.cache.Enabled() || !s.flags.Enabled(featureflags.FeedAuthorCache, userID) {
		return s.followRepo.FollowingIDs(ctx, userID)
	}

	var ids []uint
	err := s.cache.Aside(ctx, cache.FollowingKey(userID), &ids, cache.FollowingTTL, func() error {
		var err error
		ids, err = s.followRepo.FollowingIDs(ctx, userID)
		return err
	})
	return ids, err
}
