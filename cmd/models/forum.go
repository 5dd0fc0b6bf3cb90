package models

import "time"

// Group is an admin-managed section that posts may be filed under.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"column:title;size:200;not null" json:"title"`
	Slug        string `gorm:"column:slug;size:200;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"column:description;type:text;not null" json:"description"`
}

func (Group) TableName() string {
	return "post_groups"
}

type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"column:text;type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"column:pub_date;not null;index;<-:create" json:"pub_date"`
	AuthorID uint      `gorm:"column:author_id;not null;index" json:"author_id"`
	GroupID  *uint     `gorm:"column:group_id;index" json:"group_id,omitempty"`
	Image    string    `gorm:"column:image;size:255" json:"image,omitempty"`
	Author   *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}

type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"column:post_id;not null;index" json:"post_id"`
	AuthorID uint      `gorm:"column:author_id;not null;index" json:"author_id"`
	Text     string    `gorm:"column:text;type:text;not null" json:"text"`
	Created  time.Time `gorm:"column:created;not null;<-:create" json:"created"`
	Post     *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Author   *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}

// Follow subscribes User to the posts of Author. A pair appears at most once.
type Follow struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	UserID   uint  `gorm:"column:user_id;not null;uniqueIndex:idx_follows_user_author" json:"user_id"`
	AuthorID uint  `gorm:"column:author_id;not null;uniqueIndex:idx_follows_user_author;index" json:"author_id"`
	User     *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Author   *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Follow) TableName() string {
	return "follows"
}

// All lists every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Group{},
		&Post{},
		&Comment{},
		&Follow{},
	}
}
