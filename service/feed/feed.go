// Package feed composes paginated post listings for the global, group,
// author and followed-authors scopes.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/KAsare1/Postly-server/service/store"
)

var ErrUnauthenticated = errors.New("feed requires an authenticated viewer")

type Kind int

const (
	KindGlobal Kind = iota
	KindGroup
	KindAuthor
	KindFollowed
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindGroup:
		return "group"
	case KindAuthor:
		return "author"
	case KindFollowed:
		return "followed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Scope struct {
	Kind     Kind
	Slug     string
	Username string
}

func Global() Scope                  { return Scope{Kind: KindGlobal} }
func ByGroup(slug string) Scope      { return Scope{Kind: KindGroup, Slug: slug} }
func ByAuthor(username string) Scope { return Scope{Kind: KindAuthor, Username: username} }
func Followed() Scope                { return Scope{Kind: KindFollowed} }

// Feed is one composed page plus whatever the scope resolved along the way.
type Feed struct {
	Scope Scope
	Page  *Page

	Group     *models.Group
	Author    *models.User
	Following bool
	Stats     store.ProfileStats
}

// HasMore reports whether a later page exists.
func (f *Feed) HasMore() bool {
	return f.Page.HasNext()
}

type Composer struct {
	store *store.Store
}

func NewComposer(st *store.Store) *Composer {
	return &Composer{store: st}
}

// Compose builds page number of scope as seen by viewer (nil when anonymous).
// Out-of-range page numbers are clamped; only unresolved scope references
// and anonymous access to the followed feed are errors.
func (c *Composer) Compose(ctx context.Context, scope Scope, viewer *models.User, number int) (*Feed, error) {
	f := &Feed{Scope: scope}
	var filter store.PostFilter

	switch scope.Kind {
	case KindGlobal:
	case KindGroup:
		g, err := c.store.GroupBySlug(ctx, scope.Slug)
		if err != nil {
			return nil, err
		}
		f.Group = g
		filter.GroupID = g.ID
	case KindAuthor:
		author, err := c.store.UserByUsername(ctx, scope.Username)
		if err != nil {
			return nil, err
		}
		f.Author = author
		filter.AuthorID = author.ID
		if viewer != nil {
			if f.Following, err = c.store.IsFollowing(ctx, viewer, author); err != nil {
				return nil, err
			}
		}
		if f.Stats, err = c.store.ProfileStats(ctx, author); err != nil {
			return nil, err
		}
	case KindFollowed:
		if viewer == nil {
			return nil, ErrUnauthenticated
		}
		filter.FollowerID = viewer.ID
	default:
		return nil, fmt.Errorf("unknown feed scope %s", scope.Kind)
	}

	total, err := c.store.CountPosts(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := &Page{Total: total, NumPages: NumPages(total, PageSize)}
	page.Number = Clamp(number, page.NumPages)

	page.Posts, err = c.store.ListPosts(ctx, filter, (page.Number-1)*PageSize, PageSize)
	if err != nil {
		return nil, err
	}
	f.Page = page
	return f, nil
}
