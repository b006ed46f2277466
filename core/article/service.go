package article

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("article not found")

type (
	Repository interface {
		CreateArticle(art Article) (Article, error)
		// QueryArticles returns articles of the given kind, newest first.
		// An empty kind returns everything.
		QueryArticles(kind string) ([]Article, error)
		GetArticleByID(id int) (Article, error)
		GetLatestArticle(kind string) (Article, error)
		UpdateArticle(art Article) (Article, error)
		DeleteArticlesByID(ids ...int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(authorID int, na NewArticle) (Article, error) {
	now := time.Now().UTC()
	art := Article{
		Title:     na.Title,
		Content:   na.Content,
		Kind:      na.Kind,
		FileURL:   na.FileURL,
		AuthorID:  authorID,
		PostedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateArticle(art)
}

func (svc *Service) Query(kind string) ([]Article, error) {
	return svc.repo.QueryArticles(kind)
}

func (svc *Service) GetByID(id int) (Article, error) {
	return svc.repo.GetArticleByID(id)
}

func (svc *Service) GetLatest(kind string) (Article, error) {
	return svc.repo.GetLatestArticle(kind)
}

func (svc *Service) Update(id int, ua UpdateArticle) (Article, error) {
	art := Article{
		ID:        id,
		Title:     ua.Title,
		Content:   ua.Content,
		FileURL:   ua.FileURL,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateArticle(art)
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteArticlesByID(ids...)
}
