package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPage_TotalPages(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
	}{
		{"empty result has one page", 0, 10, 1},
		{"exact multiple", 20, 10, 2},
		{"partial last page", 21, 10, 3},
		{"single item", 1, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage[int](nil, tt.total, PageRequest{Page: 1, PageSize: tt.pageSize})
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.NotNil(t, p.Items)
		})
	}
}

func TestPage_Navigation(t *testing.T) {
	p := NewPage([]int{1}, 25, PageRequest{Page: 2, PageSize: 10})
	assert.True(t, p.HasNext())
	assert.True(t, p.HasPrevious())
	assert.Equal(t, 10, PageRequest{Page: 2, PageSize: 10}.Offset())
	assert.Equal(t, 0, PageRequest{Page: 0, PageSize: 10}.Offset())

	last := NewPage([]int{1}, 25, PageRequest{Page: 3, PageSize: 10})
	assert.False(t, last.HasNext())
}

func TestPost_AfterFindDerivesEdited(t *testing.T) {
	created := time.Now()
	p := &Post{CreatedAt: created, UpdatedAt: created.Add(30 * time.Second)}
	assert.NoError(t, p.AfterFind(nil))
	assert.False(t, p.IsEdited)

	p.UpdatedAt = created.Add(2 * time.Minute)
	assert.NoError(t, p.AfterFind(nil))
	assert.True(t, p.IsEdited)
}

func TestComment_AfterFindDerivesReply(t *testing.T) {
	parent := uint(4)
	c := &Comment{ParentID: &parent}
	assert.NoError(t, c.AfterFind(nil))
	assert.True(t, c.IsReply)

	top := &Comment{}
	assert.NoError(t, top.AfterFind(nil))
	assert.False(t, top.IsReply)
}

func TestLikeTarget_Valid(t *testing.T) {
	assert.True(t, LikeTarget{Kind: LikeKindPost, ID: 1}.Valid())
	assert.True(t, LikeTarget{Kind: LikeKindComment, ID: 1}.Valid())
	assert.False(t, LikeTarget{Kind: "story", ID: 1}.Valid())
	assert.False(t, LikeTarget{Kind: LikeKindPost}.Valid())
	assert.Equal(t, "post:7", LikeTarget{Kind: LikeKindPost, ID: 7}.String())
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewInvalidOperationError("cannot follow yourself"))
	assert.Equal(t, CodeInvalidOperation, ErrorCode(wrapped))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))

	internal := NewInternalError(errors.New("boom"))
	assert.Equal(t, "Internal server error: boom", internal.Error())
	assert.ErrorIs(t, internal, internal.Err)
}
