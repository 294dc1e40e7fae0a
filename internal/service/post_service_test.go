package service

import (
	"context"
	"strings"
	"testing"

	"socialfeed/internal/events"
	"socialfeed/internal/models"
	"socialfeed/internal/repository"
	"socialfeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var validContent = strings.Repeat("words ", 5)

func newPostService(db *gorm.DB, pub events.Publisher) *PostService {
	return NewPostService(
		repository.NewPostRepository(db),
		repository.NewUserRepository(db, nil),
		pub,
		DefaultPagination,
	)
}

func ptr[T any](v T) *T { return &v }

func TestPostService_CreatePostValidation(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newPostService(db, nil)
	author := testutil.CreateUser(t, db, "author")

	tests := []struct {
		name    string
		title   string
		content string
	}{
		{"short title", "Hey", validContent},
		{"title trimmed below minimum", "   Hey    ", validContent},
		{"long title", strings.Repeat("t", 201), validContent},
		{"short content", "A fine title", "too short"},
		{"blank content", "A fine title", strings.Repeat(" ", 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: author.ID, Title: tt.title, Content: tt.content})
			assertAppError(t, err, models.CodeValidation)
		})
	}
}

func TestPostService_CreateEmitsEvent(t *testing.T) {
	db := testutil.OpenDB(t)
	pub := &recordingPublisher{}
	svc := newPostService(db, pub)
	author := testutil.CreateUser(t, db, "author")

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:  author.ID,
		Title:   "  Hello world  ",
		Content: validContent,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", post.Title)
	assert.Equal(t, "author", post.User.Username)
	assert.Equal(t, []events.Type{events.PostCreated}, pub.types())
}

func TestPostService_OnlyAuthorMayEditOrDelete(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newPostService(db, nil)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	other := testutil.CreateUser(t, db, "other")
	post := testutil.CreatePost(t, db, author.ID, "original")

	_, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: other.ID, PostID: post.ID, Title: ptr("hijacked")})
	assertAppError(t, err, models.CodeForbidden)

	err = svc.DeletePost(ctx, other.ID, post.ID)
	assertAppError(t, err, models.CodeForbidden)

	updated, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: author.ID, PostID: post.ID, Title: ptr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, post.Content, updated.Content)

	_, err = svc.UpdatePost(ctx, UpdatePostInput{UserID: author.ID, PostID: post.ID, Content: ptr("short")})
	assertAppError(t, err, models.CodeValidation)

	require.NoError(t, svc.DeletePost(ctx, author.ID, post.ID))
	_, err = svc.GetPost(ctx, post.ID, 0)
	assertAppError(t, err, models.CodeNotFound)
}

func TestPostService_ListAndUserPosts(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newPostService(db, nil)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	testutil.CreatePost(t, db, a.ID, "alpha post")
	testutil.CreatePost(t, db, b.ID, "beta post")

	all, err := svc.ListPosts(ctx, ListPostsInput{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	searched, err := svc.ListPosts(ctx, ListPostsInput{Page: 1, Search: "beta"})
	require.NoError(t, err)
	require.Len(t, searched.Items, 1)
	assert.Equal(t, b.ID, searched.Items[0].UserID)

	mine, err := svc.UserPosts(ctx, a.ID, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "alpha post", mine.Items[0].Title)

	_, err = svc.UserPosts(ctx, 999, 1, 10, 0)
	assertAppError(t, err, models.CodeNotFound)

	_, err = svc.ListPosts(ctx, ListPostsInput{Page: 5})
	assertAppError(t, err, models.CodeNotFound)
}

func TestPostService_SearchMatchesAuthorUsername(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newPostService(db, nil)
	ctx := context.Background()

	gardener := testutil.CreateUser(t, db, "GreenThumb")
	other := testutil.CreateUser(t, db, "someone")
	testutil.CreatePost(t, db, gardener.ID, "Tomatoes in March")
	testutil.CreatePost(t, db, other.ID, "Bike repair notes")

	found, err := svc.ListPosts(ctx, ListPostsInput{Page: 1, Search: "greenth"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.Total)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Tomatoes in March", found.Items[0].Title)
	assert.Equal(t, "GreenThumb", found.Items[0].User.Username)

	// Title matches still work alongside the join.
	found, err = svc.ListPosts(ctx, ListPostsInput{Page: 1, Search: "BIKE"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, other.ID, found.Items[0].UserID)
}

func TestPostService_OnlyFollowingFilter(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newPostService(db, nil)
	ctx := context.Background()

	reader := testutil.CreateUser(t, db, "reader")
	friend := testutil.CreateUser(t, db, "friend")
	stranger := testutil.CreateUser(t, db, "stranger")
	testutil.Follow(t, db, reader.ID, friend.ID)
	testutil.CreatePost(t, db, friend.ID, "from a friend")
	testutil.CreatePost(t, db, stranger.ID, "from a stranger")
	testutil.CreatePost(t, db, reader.ID, "my own post")

	page, err := svc.ListPosts(ctx, ListPostsInput{Page: 1, OnlyFollowing: true, CurrentUserID: reader.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "from a friend", page.Items[0].Title)

	_, err = svc.ListPosts(ctx, ListPostsInput{Page: 1, OnlyFollowing: true})
	assertAppError(t, err, models.CodeUnauthorized)
}
