// Package testutil provides shared database fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"socialfeed/internal/database"
	"socialfeed/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns an in-memory SQLite database with every persistent model migrated.
// The pool is pinned to one connection so the memory database survives for the test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user named name with a placeholder password hash.
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Username: name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "x",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a post by authorID.
func CreatePost(t testing.TB, db *gorm.DB, authorID uint, title string) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:  authorID,
		Title:   title,
		Content: fmt.Sprintf("%s body text that is long enough", title),
	}
	require.NoError(t, db.Omit("User").Create(p).Error)
	return p
}

// CreateComment inserts a comment on postID, optionally as a reply to parentID.
func CreateComment(t testing.TB, db *gorm.DB, authorID, postID uint, parentID *uint, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{UserID: authorID, PostID: postID, ParentID: parentID, Content: content}
	require.NoError(t, db.Omit("User").Create(c).Error)
	return c
}

// Follow inserts the edge followerID -> followeeID.
func Follow(t testing.TB, db *gorm.DB, followerID, followeeID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error)
}

// LikePost records userID liking postID.
func LikePost(t testing.TB, db *gorm.DB, userID, postID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.PostLike{UserID: userID, PostID: postID}).Error)
}
