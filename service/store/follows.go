package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/KAsare1/Postly-server/cmd/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Follow subscribes user to author. Following yourself or following twice
// is a no-op; created reports whether a row was inserted.
func (s *Store) Follow(ctx context.Context, user, author *models.User) (created bool, err error) {
	if user.ID == author.ID {
		return false, nil
	}
	f := models.Follow{UserID: user.ID, AuthorID: author.ID}
	res := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&f)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if res.Error != nil {
		return false, fmt.Errorf("create follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Unfollow removes the subscription if there is one.
func (s *Store) Unfollow(ctx context.Context, user, author *models.User) (removed bool, err error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, fmt.Errorf("delete follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) IsFollowing(ctx context.Context, user, author *models.User) (bool, error) {
	if user == nil || author == nil {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return n > 0, nil
}

type ProfileStats struct {
	Posts     int64
	Followers int64
	Following int64
}

func (s *Store) ProfileStats(ctx context.Context, user *models.User) (ProfileStats, error) {
	var st ProfileStats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Post{}).Where("author_id = ?", user.ID).Count(&st.Posts).Error; err != nil {
		return st, fmt.Errorf("count posts: %w", err)
	}
	if err := db.Model(&models.Follow{}).Where("author_id = ?", user.ID).Count(&st.Followers).Error; err != nil {
		return st, fmt.Errorf("count followers: %w", err)
	}
	if err := db.Model(&models.Follow{}).Where("user_id = ?", user.ID).Count(&st.Following).Error; err != nil {
		return st, fmt.Errorf("count following: %w", err)
	}
	return st, nil
}
