package feed_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/KAsare1/Postly-server/db/dbtest"
	"github.com/KAsare1/Postly-server/service/feed"
	"github.com/KAsare1/Postly-server/service/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *store.Store
	composer *feed.Composer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(dbtest.Open(t))
	clock := time.Date(2021, 2, 15, 0, 0, 0, 0, time.UTC)
	st.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return &fixture{store: st, composer: feed.NewComposer(st)}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "x"}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) posts(t *testing.T, author *models.User, group *models.Group, n int) []*models.Post {
	t.Helper()
	var out []*models.Post
	for i := 0; i < n; i++ {
		in := store.PostInput{Text: fmt.Sprintf("%s post %d", author.Username, i)}
		if group != nil {
			in.GroupID = &group.ID
		}
		p, err := f.store.CreatePost(context.Background(), author, in)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestParsePage(t *testing.T) {
	tests := map[string]int{
		"":    1,
		"abc": 1,
		"3":   3,
		" 2 ": 2,
		"0":   0,
		"-4":  -4,
	}
	for raw, want := range tests {
		assert.Equal(t, want, feed.ParsePage(raw), "raw %q", raw)
	}
}

func TestNumPagesAndClamp(t *testing.T) {
	assert.Equal(t, 1, feed.NumPages(0, 10))
	assert.Equal(t, 1, feed.NumPages(10, 10))
	assert.Equal(t, 2, feed.NumPages(11, 10))

	assert.Equal(t, 1, feed.Clamp(-3, 4))
	assert.Equal(t, 1, feed.Clamp(0, 4))
	assert.Equal(t, 3, feed.Clamp(3, 4))
	assert.Equal(t, 4, feed.Clamp(99, 4))
}

func TestGlobalFeedNewestFirstAndPaginated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := f.user(t, "leo")
	created := f.posts(t, leo, nil, 13)

	first, err := f.composer.Compose(ctx, feed.Global(), nil, 1)
	require.NoError(t, err)
	require.Len(t, first.Page.Posts, feed.PageSize)
	assert.Equal(t, 2, first.Page.NumPages)
	assert.Equal(t, int64(13), first.Page.Total)
	assert.True(t, first.HasMore())
	assert.Equal(t, created[12].ID, first.Page.Posts[0].ID)
	for i := 1; i < len(first.Page.Posts); i++ {
		assert.True(t, first.Page.Posts[i-1].PubDate.After(first.Page.Posts[i].PubDate))
	}

	second, err := f.composer.Compose(ctx, feed.Global(), nil, 2)
	require.NoError(t, err)
	require.Len(t, second.Page.Posts, 3)
	assert.False(t, second.HasMore())
	assert.True(t, second.Page.HasPrevious())
	assert.Equal(t, created[0].ID, second.Page.Posts[2].ID)
}

func TestOutOfRangePageIsClamped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := f.user(t, "leo")
	f.posts(t, leo, nil, 13)

	beyond, err := f.composer.Compose(ctx, feed.Global(), nil, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, beyond.Page.Number)
	assert.Len(t, beyond.Page.Posts, 3)

	below, err := f.composer.Compose(ctx, feed.Global(), nil, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, below.Page.Number)
	assert.Len(t, below.Page.Posts, feed.PageSize)
}

func TestEmptyFeedHasSingleEmptyPage(t *testing.T) {
	f := newFixture(t)

	got, err := f.composer.Compose(context.Background(), feed.Global(), nil, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page.Number)
	assert.Equal(t, 1, got.Page.NumPages)
	assert.Empty(t, got.Page.Posts)
	assert.False(t, got.HasMore())
}

func TestGroupFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := f.user(t, "leo")
	g := &models.Group{Title: "Name", Slug: "test-slug", Description: "d"}
	require.NoError(t, f.store.CreateGroup(ctx, g))
	inGroup := f.posts(t, leo, g, 2)
	f.posts(t, leo, nil, 3)

	got, err := f.composer.Compose(ctx, feed.ByGroup("test-slug"), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "Name", got.Group.Title)
	require.Len(t, got.Page.Posts, 2)
	assert.Equal(t, inGroup[1].ID, got.Page.Posts[0].ID)

	_, err = f.composer.Compose(ctx, feed.ByGroup("other-slug"), nil, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAuthorFeedReportsFollowState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := f.user(t, "leo")
	mia := f.user(t, "mia")
	f.posts(t, leo, nil, 2)
	f.posts(t, mia, nil, 1)

	anon, err := f.composer.Compose(ctx, feed.ByAuthor("leo"), nil, 1)
	require.NoError(t, err)
	assert.False(t, anon.Following)
	assert.Len(t, anon.Page.Posts, 2)
	assert.Equal(t, int64(2), anon.Stats.Posts)

	_, err = f.store.Follow(ctx, mia, leo)
	require.NoError(t, err)

	seen, err := f.composer.Compose(ctx, feed.ByAuthor("leo"), mia, 1)
	require.NoError(t, err)
	assert.True(t, seen.Following)
	assert.Equal(t, int64(1), seen.Stats.Followers)
	assert.Equal(t, "leo", seen.Author.Username)

	_, err = f.composer.Compose(ctx, feed.ByAuthor("ghost"), mia, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFollowedFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := f.user(t, "leo")
	mia := f.user(t, "mia")
	kai := f.user(t, "kai")
	f.posts(t, leo, nil, 1)
	miaPosts := f.posts(t, mia, nil, 2)

	_, err := f.composer.Compose(ctx, feed.Followed(), nil, 1)
	assert.ErrorIs(t, err, feed.ErrUnauthenticated)

	_, err = f.store.Follow(ctx, kai, mia)
	require.NoError(t, err)

	got, err := f.composer.Compose(ctx, feed.Followed(), kai, 1)
	require.NoError(t, err)
	require.Len(t, got.Page.Posts, 2)
	assert.Equal(t, miaPosts[1].ID, got.Page.Posts[0].ID)

	none, err := f.composer.Compose(ctx, feed.Followed(), leo, 1)
	require.NoError(t, err)
	assert.Empty(t, none.Page.Posts)
}
