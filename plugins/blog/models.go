package blog

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"recordcore/pkg/record"
)

// User is a registered author. Passwords are transient: only the hash
// column is persisted, and the confirmation pair is checked on save.
type User struct {
	record.Base
	DisplayName          string
	Email                string `orm:"unique"`
	PasswordHash         string `db:"password_hash"`
	Password             string `db:"-"`
	PasswordConfirmation string `orm:"confirm=Password"`
	Bio                  sql.NullString
	BirthDate            pgtype.Date
	MonthlyBudget        decimal.Decimal
	ExternalRef          uuid.UUID
	Posts                []Post
	Comments             []Comment
}

func (User) TableName() string { return "users" }

func (User) Associations() []record.Association {
	return []record.Association{
		record.HasMany("Posts", "posts", "user_id"),
		record.HasMany("Comments", "comments", "user_id"),
	}
}

// Post belongs to its author and carries free-form tags.
type Post struct {
	record.Base
	Title      string
	Slug       string `orm:"unique"`
	Body       string
	Published  bool
	ViewCount  int64
	Rating     *float64
	UserID     string
	Author     *User
	Comments   []Comment
	Commenters []User
	Tags       []Tag
}

func (Post) TableName() string { return "posts" }

func (Post) Associations() []record.Association {
	return []record.Association{
		record.BelongsTo("Author", "users", "user_id"),
		record.HasMany("Comments", "comments", "post_id"),
		record.HasManyThrough("Commenters", "users", "comments", "post_id", "user_id"),
		record.HasAndBelongsToMany("Tags", "tags", "posts_tags", "post_id", "tag_id"),
	}
}

// Comment is a user's remark under a post.
type Comment struct {
	record.Base
	Body   string
	PostID string
	UserID string
	Post   *Post
	Author *User
}

func (Comment) TableName() string { return "comments" }

func (Comment) Associations() []record.Association {
	return []record.Association{
		record.BelongsTo("Post", "posts", "post_id"),
		record.BelongsTo("Author", "users", "user_id"),
	}
}

// Tag labels posts; the relation is symmetric through posts_tags.
type Tag struct {
	record.Base
	Label string `orm:"unique"`
	Posts []Post
}

func (Tag) TableName() string { return "tags" }

func (Tag) Associations() []record.Association {
	return []record.Association{
		record.HasAndBelongsToMany("Posts", "posts", "posts_tags", "tag_id", "post_id"),
	}
}
