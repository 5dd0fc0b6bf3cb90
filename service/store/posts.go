package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/KAsare1/Postly-server/cmd/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostInput carries the editable fields of a post. Image is a media path;
// an empty Image leaves the current one untouched unless ClearImage is set.
type PostInput struct {
	Text       string
	GroupID    *uint
	Image      string
	ClearImage bool
}

// PostFilter narrows a post listing. Zero values mean "no restriction".
type PostFilter struct {
	GroupID    uint
	AuthorID   uint
	FollowerID uint
}

func (f PostFilter) apply(db *gorm.DB) *gorm.DB {
	q := db.Model(&models.Post{})
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.FollowerID != 0 {
		followed := db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", f.FollowerID)
		q = q.Where("author_id IN (?)", followed)
	}
	return q
}

func (s *Store) CountPosts(ctx context.Context, f PostFilter) (int64, error) {
	var n int64
	if err := f.apply(s.db.WithContext(ctx)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// ListPosts returns posts newest first. Posts sharing a pub_date are ordered
// by id, highest first, so pages never shuffle between requests.
func (s *Store) ListPosts(ctx context.Context, f PostFilter, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := f.apply(s.db.WithContext(ctx)).
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *Store) CreatePost(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {
	if author == nil || author.ID == 0 {
		return nil, fmt.Errorf("post needs an author: %w", ErrInvalid)
	}
	post := &models.Post{
		Text:     in.Text,
		PubDate:  s.Now(),
		AuthorID: author.ID,
		GroupID:  in.GroupID,
		Image:    in.Image,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return fmt.Errorf("post references a missing row: %w", ErrInvalid)
			}
			return fmt.Errorf("create post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	post.Author = author
	return post, nil
}

// PostByAuthor resolves a post only when it belongs to the named author.
func (s *Store) PostByAuthor(ctx context.Context, username string, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("users.username = ? AND posts.id = ?", username, id).
		First(&post).Error
	if err != nil {
		return nil, lookupErr(err, "post")
	}
	return &post, nil
}

// UpdatePost rewrites the editable fields. pub_date is never touched.
func (s *Store) UpdatePost(ctx context.Context, post *models.Post, in PostInput) error {
	image := post.Image
	switch {
	case in.Image != "":
		image = in.Image
	case in.ClearImage:
		image = ""
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Post{ID: post.ID}).
			Select("text", "group_id", "image").
			Updates(map[string]interface{}{
				"text":     in.Text,
				"group_id": in.GroupID,
				"image":    image,
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return fmt.Errorf("post references a missing row: %w", ErrInvalid)
		}
		return fmt.Errorf("update post: %w", err)
	}
	post.Text = in.Text
	post.GroupID = in.GroupID
	post.Image = image
	if in.GroupID == nil {
		post.Group = nil
	} else if post.Group == nil || post.Group.ID != *in.GroupID {
		post.Group = nil
		var g models.Group
		if err := s.db.WithContext(ctx).First(&g, *in.GroupID).Error; err == nil {
			post.Group = &g
		}
	}
	return nil
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Comments

func (s *Store) CreateComment(ctx context.Context, post *models.Post, author *models.User, text string) (*models.Comment, error) {
	if post == nil || author == nil || author.ID == 0 {
		return nil, fmt.Errorf("comment needs a post and an author: %w", ErrInvalid)
	}
	c := &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     text,
		Created:  s.Now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(c).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, fmt.Errorf("comment references a missing row: %w", ErrInvalid)
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	c.Author = author
	return c, nil
}

func (s *Store) CommentsForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
