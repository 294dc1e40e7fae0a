package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"socialfeed/internal/models"
	"socialfeed/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postPage struct {
	Count       int64         `json:"count"`
	Next        *string       `json:"next"`
	Previous    *string       `json:"previous"`
	PageSize    int           `json:"page_size"`
	TotalPages  int           `json:"total_pages"`
	CurrentPage int           `json:"current_page"`
	Results     []models.Post `json:"results"`
}

func titles(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func TestFollowEndpoints(t *testing.T) {
	e := newTestEnv(t, nil)
	alice := testutil.CreateUser(t, e.db, "alice")
	bob := testutil.CreateUser(t, e.db, "bob")

	t.Run("requires auth", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/follow/%d", bob.ID), 0, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("follow reports counts", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/follow/%d", bob.ID), alice.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		state := decode[models.FollowState](t, resp)
		assert.True(t, state.Following)
		assert.Equal(t, int64(1), state.FollowersCount)
		assert.Equal(t, int64(1), state.FollowingCount)
	})

	t.Run("follow is idempotent", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/follow/%d", bob.ID), alice.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		state := decode[models.FollowState](t, resp)
		assert.Equal(t, int64(1), state.FollowersCount)
	})

	t.Run("self follow rejected", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/follow/%d", alice.ID), alice.ID, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, models.CodeInvalidOperation, decode[errorBody](t, resp).Code)
	})

	t.Run("unknown target", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/follow/9999", alice.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/follow/abc", alice.ID, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid user ID", decode[errorBody](t, resp).Error)
	})

	t.Run("followers list", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/followers", bob.ID), 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode[listResponse[models.User]](t, resp)
		assert.Equal(t, int64(1), body.Count)
		require.Len(t, body.Results, 1)
		assert.Equal(t, "alice", body.Results[0].Username)
	})

	t.Run("follow status", func(t *testing.T) {
		type status struct {
			Following bool `json:"following"`
		}
		resp := e.do(t, http.MethodGet, fmt.Sprintf("/api/follow/%d", bob.ID), alice.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, decode[status](t, resp).Following)

		resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/follow/%d", alice.ID), bob.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, decode[status](t, resp).Following)

		resp = e.do(t, http.MethodGet, "/api/follow/9999", alice.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/follow/%d", bob.ID), 0, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unfollow restores graph", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/unfollow/%d", bob.ID), alice.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		state := decode[models.FollowState](t, resp)
		assert.False(t, state.Following)
		assert.Zero(t, state.FollowersCount)
		assert.Zero(t, state.FollowingCount)
	})
}

func TestFeedEndpoint(t *testing.T) {
	e := newTestEnv(t, nil)
	u1 := testutil.CreateUser(t, e.db, "u1")
	u2 := testutil.CreateUser(t, e.db, "u2")
	u3 := testutil.CreateUser(t, e.db, "u3")
	testutil.Follow(t, e.db, u1.ID, u2.ID)
	testutil.CreatePost(t, e.db, u2.ID, "P1 older")
	testutil.CreatePost(t, e.db, u2.ID, "P2 newer")
	testutil.CreatePost(t, e.db, u3.ID, "P3 stranger")

	resp := e.do(t, http.MethodGet, "/api/feed", u1.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[postPage](t, resp)
	assert.Equal(t, []string{"P2 newer", "P1 older"}, titles(page.Results))
	assert.Equal(t, int64(2), page.Count)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 10, page.PageSize)
	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)

	t.Run("requires auth", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/feed", 0, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("page links", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/feed?page_size=1", u1.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[postPage](t, resp)
		assert.Equal(t, 2, page.TotalPages)
		require.NotNil(t, page.Next)
		assert.Contains(t, *page.Next, "page=2")
		assert.Contains(t, *page.Next, "page_size=1")
		assert.Nil(t, page.Previous)
	})

	t.Run("page past the end", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/feed?page=5", u1.ID, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Invalid page", decode[errorBody](t, resp).Error)
	})

	t.Run("non numeric page", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/feed?page=two", u1.ID, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("trending", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/feed/trending", u1.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[postPage](t, resp)
		assert.ElementsMatch(t, []string{"P2 newer", "P1 older"}, titles(page.Results))
	})
}

func TestLikeEndpoints(t *testing.T) {
	e := newTestEnv(t, nil)
	author := testutil.CreateUser(t, e.db, "author")
	fan := testutil.CreateUser(t, e.db, "fan")
	post := testutil.CreatePost(t, e.db, author.ID, "Likeable post")
	comment := testutil.CreateComment(t, e.db, author.ID, post.ID, nil, "nice comment")

	path := fmt.Sprintf("/api/posts/%d/like", post.ID)
	resp := e.do(t, http.MethodPost, path, fan.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.LikeResult{Liked: true, TotalLikes: 1}, decode[models.LikeResult](t, resp))

	resp = e.do(t, http.MethodPost, path, fan.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.LikeResult{Liked: false, TotalLikes: 0}, decode[models.LikeResult](t, resp))

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/api/comments/%d/like", comment.ID), fan.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[models.LikeResult](t, resp).Liked)

	resp = e.do(t, http.MethodPost, "/api/posts/9999/like", fan.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodPost, path, 0, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	t.Run("like status", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, fmt.Sprintf("/api/comments/%d/like", comment.ID), fan.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.LikeResult{Liked: true, TotalLikes: 1}, decode[models.LikeResult](t, resp))

		resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/comments/%d/like", comment.ID), author.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.LikeResult{Liked: false, TotalLikes: 1}, decode[models.LikeResult](t, resp))

		resp = e.do(t, http.MethodGet, path, fan.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.LikeResult{Liked: false, TotalLikes: 0}, decode[models.LikeResult](t, resp))

		resp = e.do(t, http.MethodGet, "/api/posts/9999/like", fan.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPostEndpoints(t *testing.T) {
	e := newTestEnv(t, nil)
	author := testutil.CreateUser(t, e.db, "writer")
	other := testutil.CreateUser(t, e.db, "reader")

	resp := e.do(t, http.MethodPost, "/api/posts", author.ID, map[string]string{
		"title":   "Hello world",
		"content": "This content is comfortably long enough.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Post](t, resp)
	assert.Equal(t, author.ID, created.UserID)

	t.Run("validation", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/posts", author.ID, map[string]string{
			"title":   "Hi",
			"content": "short",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get with liked flag", func(t *testing.T) {
		testutil.LikePost(t, e.db, other.ID, created.ID)
		resp := e.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", created.ID), other.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		post := decode[models.Post](t, resp)
		assert.True(t, post.Liked)
		assert.Equal(t, int64(1), post.LikesCount)

		resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", created.ID), 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, decode[models.Post](t, resp).Liked)
	})

	t.Run("update by non author", func(t *testing.T) {
		resp := e.do(t, http.MethodPut, fmt.Sprintf("/api/posts/%d", created.ID), other.ID, map[string]string{
			"title": "Hijacked title",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("update by author", func(t *testing.T) {
		resp := e.do(t, http.MethodPut, fmt.Sprintf("/api/posts/%d", created.ID), author.ID, map[string]string{
			"title": "Hello again",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		post := decode[models.Post](t, resp)
		assert.Equal(t, "Hello again", post.Title)
		assert.Equal(t, "This content is comfortably long enough.", post.Content)
	})

	t.Run("explore search", func(t *testing.T) {
		testutil.CreatePost(t, e.db, other.ID, "Unrelated topic")
		resp := e.do(t, http.MethodGet, "/api/posts?search=again", 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"Hello again"}, titles(decode[postPage](t, resp).Results))

		resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/posts?author=%d", other.ID), 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"Unrelated topic"}, titles(decode[postPage](t, resp).Results))

		resp = e.do(t, http.MethodGet, "/api/posts?author=nobody", 0, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("user posts", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/posts", author.ID), 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(1), decode[postPage](t, resp).Count)

		resp = e.do(t, http.MethodGet, "/api/users/9999/posts", 0, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		path := fmt.Sprintf("/api/posts/%d", created.ID)
		resp := e.do(t, http.MethodDelete, path, other.ID, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = e.do(t, http.MethodDelete, path, author.ID, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = e.do(t, http.MethodGet, path, 0, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCommentEndpoints(t *testing.T) {
	e := newTestEnv(t, nil)
	author := testutil.CreateUser(t, e.db, "poster")
	commenter := testutil.CreateUser(t, e.db, "commenter")
	post := testutil.CreatePost(t, e.db, author.ID, "Discussion")
	otherPost := testutil.CreatePost(t, e.db, author.ID, "Elsewhere")

	resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), commenter.ID,
		map[string]any{"content": "first!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	top := decode[models.Comment](t, resp)
	assert.False(t, top.IsReply)

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), author.ID,
		map[string]any{"content": "thanks for reading", "parent_id": top.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, decode[models.Comment](t, resp).IsReply)

	t.Run("reply to a comment on another post", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", otherPost.ID), author.ID,
			map[string]any{"content": "wrong thread", "parent_id": top.ID})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("lists", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post.ID), 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[pageResponse[models.Comment]](t, resp)
		require.Len(t, page.Results, 1)
		assert.Equal(t, int64(1), page.Results[0].RepliesCount)

		resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/comments/%d/replies", top.ID), 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		replies := decode[pageResponse[models.Comment]](t, resp)
		require.Len(t, replies.Results, 1)
		assert.Equal(t, "thanks for reading", replies.Results[0].Content)
	})

	t.Run("update and delete", func(t *testing.T) {
		path := fmt.Sprintf("/api/comments/%d", top.ID)
		resp := e.do(t, http.MethodPut, path, author.ID, map[string]string{"content": "edited by someone else"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = e.do(t, http.MethodPut, path, commenter.ID, map[string]string{"content": "first, edited"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "first, edited", decode[models.Comment](t, resp).Content)

		resp = e.do(t, http.MethodDelete, path, commenter.ID, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post.ID), 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decode[pageResponse[models.Comment]](t, resp).Results)
	})
}

func TestUserEndpoints(t *testing.T) {
	e := newTestEnv(t, nil)

	resp := e.do(t, http.MethodPost, "/api/users/register", 0, map[string]string{
		"username":  "newbie",
		"email":     "Newbie@Example.com",
		"password":  "s3cure-passw0rd",
		"password2": "s3cure-passw0rd",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	raw := decode[map[string]any](t, resp)
	assert.Equal(t, "newbie@example.com", raw["email"])
	assert.NotContains(t, raw, "password")
	userID := uint(raw["id"].(float64))

	t.Run("duplicate registration", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/users/register", 0, map[string]string{
			"username":  "newbie",
			"email":     "other@example.com",
			"password":  "s3cure-passw0rd",
			"password2": "s3cure-passw0rd",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("password mismatch", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/users/register", 0, map[string]string{
			"username":  "another",
			"email":     "another@example.com",
			"password":  "s3cure-passw0rd",
			"password2": "different-passw0rd",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.True(t, strings.Contains(decode[errorBody](t, resp).Error, "didn't match"))
	})

	t.Run("me resolves before id route", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/users/me", userID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "newbie", decode[models.User](t, resp).Username)

		resp = e.do(t, http.MethodGet, "/api/users/me", 0, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("update profile", func(t *testing.T) {
		resp := e.do(t, http.MethodPut, "/api/users/me", userID, map[string]string{"bio": "hello there"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "hello there", decode[models.User](t, resp).Bio)
	})

	t.Run("profile shows follow state", func(t *testing.T) {
		viewer := testutil.CreateUser(t, e.db, "viewer")
		testutil.Follow(t, e.db, viewer.ID, userID)

		resp := e.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", userID), viewer.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		profile := decode[models.User](t, resp)
		assert.True(t, profile.IsFollowing)
		assert.Equal(t, int64(1), profile.FollowersCount)

		resp = e.do(t, http.MethodGet, "/api/users/9999", 0, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("suggestions exclude self and followed users", func(t *testing.T) {
		stranger := testutil.CreateUser(t, e.db, "stranger")
		viewer := testutil.CreateUser(t, e.db, "viewer2")
		testutil.Follow(t, e.db, viewer.ID, userID)

		resp := e.do(t, http.MethodGet, "/api/users/suggestions", viewer.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var names []string
		for _, u := range decode[[]models.User](t, resp) {
			names = append(names, u.Username)
		}
		assert.Contains(t, names, stranger.Username)
		assert.NotContains(t, names, "viewer2")
		assert.NotContains(t, names, "newbie")
	})
}

func TestRegister_RejectsWhenRateLimitStoreIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	e := newTestEnv(t, rdb)
	mr.Close()

	resp := e.do(t, http.MethodPost, "/api/users/register", 0, map[string]string{
		"username":  "blocked",
		"email":     "blocked@example.com",
		"password":  "s3cure-passw0rd",
		"password2": "s3cure-passw0rd",
	})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "rate limit unavailable", decode[errorBody](t, resp).Error)

	var n int64
	require.NoError(t, e.db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGetPosts_FollowingAndUsernameSearch(t *testing.T) {
	e := newTestEnv(t, nil)
	reader := testutil.CreateUser(t, e.db, "reader")
	chef := testutil.CreateUser(t, e.db, "chefmarco")
	other := testutil.CreateUser(t, e.db, "other")
	testutil.Follow(t, e.db, reader.ID, chef.ID)
	testutil.CreatePost(t, e.db, chef.ID, "Risotto tips")
	testutil.CreatePost(t, e.db, other.ID, "Unrelated thoughts")

	resp := e.do(t, http.MethodGet, "/api/posts?following=true", reader.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Risotto tips"}, titles(decode[postPage](t, resp).Results))

	resp = e.do(t, http.MethodGet, "/api/posts?following=true", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/posts?search=CHEFM", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Risotto tips"}, titles(decode[postPage](t, resp).Results))
}
