package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"socialfeed/internal/cache"
	"socialfeed/internal/featureflags"
	"socialfeed/internal/models"
	"socialfeed/internal/repository"
	"socialfeed/internal/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFeedService(db *gorm.DB, rdb *redis.Client, flags string) *FeedService {
	return NewFeedService(
		repository.NewPostRepository(db),
		repository.NewFollowRepository(db),
		cache.New(rdb),
		featureflags.NewManager(flags),
		DefaultPagination,
	)
}

func feedTitles(p models.Page[models.Post]) []string {
	out := make([]string, 0, len(p.Items))
	for _, post := range p.Items {
		out = append(out, post.Title)
	}
	return out
}

func TestFeedService_FollowedAndOwnPostsOnly(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newFeedService(db, nil, "")
	ctx := context.Background()

	u1 := testutil.CreateUser(t, db, "u1")
	u2 := testutil.CreateUser(t, db, "u2")
	u3 := testutil.CreateUser(t, db, "u3")
	testutil.Follow(t, db, u1.ID, u2.ID)

	testutil.CreatePost(t, db, u2.ID, "P1 older")
	testutil.CreatePost(t, db, u2.ID, "P2 newer")
	testutil.CreatePost(t, db, u3.ID, "P3 stranger")

	page, err := svc.Feed(ctx, u1.ID, FeedLatest, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"P2 newer", "P1 older"}, feedTitles(page))
	assert.Equal(t, int64(2), page.Total)

	testutil.CreatePost(t, db, u1.ID, "own")
	page, err = svc.Feed(ctx, u1.ID, FeedLatest, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"own", "P2 newer", "P1 older"}, feedTitles(page))
	for _, post := range page.Items {
		assert.NotEqual(t, u3.ID, post.UserID)
	}
}

func TestFeedService_EmptyFeedIsValidFirstPage(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newFeedService(db, nil, "")
	loner := testutil.CreateUser(t, db, "loner")

	page, err := svc.Feed(context.Background(), loner.ID, FeedLatest, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext())
}

func TestFeedService_PageValidation(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newFeedService(db, nil, "")
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "writer")
	for _, title := range []string{"first", "second", "third"} {
		testutil.CreatePost(t, db, u.ID, title)
	}

	_, err := svc.Feed(ctx, u.ID, FeedLatest, 0, 2)
	assertAppError(t, err, models.CodeInvalidOperation)

	page, err := svc.Feed(ctx, u.ID, FeedLatest, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, feedTitles(page))
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasPrevious())

	_, err = svc.Feed(ctx, u.ID, FeedLatest, 3, 2)
	assertAppError(t, err, models.CodeNotFound)
}

func TestFeedService_Trending(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newFeedService(db, nil, "")
	ctx := context.Background()

	reader := testutil.CreateUser(t, db, "reader")
	author := testutil.CreateUser(t, db, "author")
	testutil.Follow(t, db, reader.ID, author.ID)

	testutil.CreatePost(t, db, author.ID, "ignored")
	hit := testutil.CreatePost(t, db, author.ID, "hit")
	testutil.LikePost(t, db, reader.ID, hit.ID)

	page, err := svc.Feed(ctx, reader.ID, FeedTrending, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"hit", "ignored"}, feedTitles(page))
	assert.True(t, page.Items[0].Liked)
}

func TestFeedService_AuthorSetCache(t *testing.T) {
	db := testutil.OpenDB(t)
	mr, rdb := newRedis(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	testutil.Follow(t, db, alice.ID, bob.ID)

	t.Run("flag off reads the follows table", func(t *testing.T) {
		svc := newFeedService(db, rdb, "")
		authors, err := svc.AuthorSet(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{alice.ID, bob.ID}, authors)
		assert.False(t, mr.Exists(cache.FollowingKey(alice.ID)))
	})

	t.Run("flag on caches the following ids", func(t *testing.T) {
		svc := newFeedService(db, rdb, "feed_author_cache=on")
		authors, err := svc.AuthorSet(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{alice.ID, bob.ID}, authors)
		assert.True(t, mr.Exists(cache.FollowingKey(alice.ID)))

		// A follow written behind the service's back is invisible until invalidation.
		testutil.Follow(t, db, alice.ID, carol.ID)
		authors, err = svc.AuthorSet(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{alice.ID, bob.ID}, authors)

		mr.Del(cache.FollowingKey(alice.ID))
		authors, err = svc.AuthorSet(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{alice.ID, bob.ID, carol.ID}, authors)
	})
}

// followRepoStub fails FollowingIDs; the other methods are unused by FeedService.
type followRepoStub struct {
	repository.FollowRepository
	err error
}

func (s *followRepoStub) FollowingIDs(context.Context, uint) ([]uint, error) {
	return nil, s.err
}

func TestFeedService_PropagatesRepositoryErrors(t *testing.T) {
	boom := models.NewInternalError(errors.New("db down"))
	svc := NewFeedService(nil, &followRepoStub{err: boom}, nil, nil, DefaultPagination)

	_, err := svc.Feed(context.Background(), 1, FeedLatest, 1, 10)
	assert.ErrorIs(t, err, boom)
}

func TestFeedService_EqualTimestampsPageByIDDescending(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newFeedService(db, nil, "")
	ctx := context.Background()

	reader := testutil.CreateUser(t, db, "reader")
	author := testutil.CreateUser(t, db, "author")
	testutil.Follow(t, db, reader.ID, author.ID)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []uint
	for i := 1; i <= 5; i++ {
		p := &models.Post{
			UserID:    author.ID,
			Title:     fmt.Sprintf("same instant %d", i),
			Content:   "posted in the very same second",
			CreatedAt: at,
			UpdatedAt: at,
		}
		require.NoError(t, db.Omit("User").Create(p).Error)
		ids = append(ids, p.ID)
	}
	want := []uint{ids[4], ids[3], ids[2], ids[1], ids[0]}

	for _, kind := range []FeedKind{FeedLatest, FeedTrending} {
		t.Run(string(kind), func(t *testing.T) {
			var got []uint
			for page := 1; page <= 3; page++ {
				p, err := svc.Feed(ctx, reader.ID, kind, page, 2)
				require.NoError(t, err)
				assert.Equal(t, int64(5), p.Total)
				for _, post := range p.Items {
					got = append(got, post.ID)
				}
			}
			assert.Equal(t, want, got)

			_, err := svc.Feed(ctx, reader.ID, kind, 4, 2)
			require.Error(t, err)
			assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
			assert.EqualError(t, err, "Invalid page")
		})
	}
}
