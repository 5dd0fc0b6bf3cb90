// Package store persists users, groups, posts, comments and follows and
// enforces the relational rules between them. Every write runs in a single
// transaction; cascades are carried out explicitly rather than left to the
// database so they behave the same on every driver.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/KAsare1/Postly-server/service/forms"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrSlugTaken     = errors.New("slug already taken")
	ErrInvalid       = errors.New("invalid record")
)

type Store struct {
	db *gorm.DB

	// Now stamps pub_date and created; swapped out in tests.
	Now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:  db,
		Now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.Username == "" || u.PasswordHash == "" {
		return fmt.Errorf("user needs a username and password: %w", ErrInvalid)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if n > 0 {
			return ErrUsernameTaken
		}
		u.DateJoined = s.Now()
		err := tx.Create(u).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameTaken
		}
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, lookupErr(err, "user")
	}
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, lookupErr(err, "user")
	}
	return &u, nil
}

// DeleteUser removes the user together with their posts, every comment they
// wrote or that was left on their posts, and follows in both directions.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownPosts := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("author_id = ? OR post_id IN (?)", id, ownPosts).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("delete posts: %w", err)
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return fmt.Errorf("delete follows: %w", err)
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Groups

func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	if g.Slug == "" || g.Title == "" {
		return fmt.Errorf("group needs a title and slug: %w", ErrInvalid)
	}
	if f := forms.Slug(g.Slug); !f.OK() || f.Value() != g.Slug {
		return fmt.Errorf("group slug %q: %w", g.Slug, ErrInvalid)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Group{}).Where("slug = ?", g.Slug).Count(&n).Error; err != nil {
			return fmt.Errorf("check slug: %w", err)
		}
		if n > 0 {
			return ErrSlugTaken
		}
		err := tx.Create(g).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSlugTaken
		}
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		return nil
	})
}

func (s *Store) GroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, lookupErr(err, "group")
	}
	return &g, nil
}

func (s *Store) GroupByID(ctx context.Context, id uint) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, lookupErr(err, "group")
	}
	return &g, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("title ASC").Order("id ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// DeleteGroup detaches the group's posts before removing it; the posts stay.
func (s *Store) DeleteGroup(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("group_id = ?", id).
			UpdateColumn("group_id", gorm.Expr("NULL")).Error; err != nil {
			return fmt.Errorf("detach posts: %w", err)
		}
		res := tx.Delete(&models.Group{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete group: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("group %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
