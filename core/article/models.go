package article

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yousuf-shahzad/maths-soc-source/core"
)

// Kinds
const (
	KindArticle    = "article"
	KindNewsletter = "newsletter"
)

type Article struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind"` // article | newsletter
	FileURL   string    `json:"file_url,omitempty"`
	AuthorID  int       `json:"author_id"`
	PostedAt  time.Time `json:"posted_at"`  // UTC
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (a *Article) IsNewsletter() bool { return a.Kind == KindNewsletter }

// NewArticle contains information needed to create a new Article.
type NewArticle struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Kind    string `json:"kind" validate:"required,oneof=article newsletter"`
	FileURL string `json:"file_url" validate:"omitempty,url"`
}

func (na *NewArticle) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Kind = core.CleanString(na.Kind, true /* lower */)
	return validate.Struct(na)
}

// UpdateArticle defines what information may be provided to modify an
// existing Article. The kind is immutable.
type UpdateArticle struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	FileURL string `json:"file_url" validate:"omitempty,url"`
}

func (ua *UpdateArticle) Validate(origArt Article, validate *validator.Validate) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = origArt.Title
	}
	if ua.Content == "" {
		ua.Content = origArt.Content
	}
	return validate.Struct(ua)
}
