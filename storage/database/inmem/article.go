package inmemdb

import (
	"sort"

	"github.com/yousuf-shahzad/maths-soc-source/core/article"
)

type articleRepository struct {
	db *DB
}

var _ article.Repository = (*articleRepository)(nil) // interface compliance check

func NewArticleRepository(db *DB) *articleRepository {
	return &articleRepository{db: db}
}

func (repo *articleRepository) query(kind string) []article.Article {
	arts := make([]article.Article, 0, len(repo.db.articles))
	for _, art := range repo.db.articles {
		if kind != "" && art.Kind != kind {
			continue
		}
		arts = append(arts, *art)
	}
	sort.Slice(arts, func(i, j int) bool { return arts[i].PostedAt.After(arts[j].PostedAt) })
	return arts
}

func (repo *articleRepository) CreateArticle(art article.Article) (article.Article, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	art.ID = repo.db.nextPK()
	repo.db.articles[art.ID] = &art
	return art, nil
}

func (repo *articleRepository) QueryArticles(kind string) ([]article.Article, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(kind), nil
}

func (repo *articleRepository) GetArticleByID(id int) (article.Article, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if art, ok := repo.db.articles[id]; ok {
		return *art, nil
	}
	return article.Article{}, article.ErrNotFound
}

func (repo *articleRepository) GetLatestArticle(kind string) (article.Article, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	arts := repo.query(kind)
	if len(arts) == 0 {
		return article.Article{}, article.ErrNotFound
	}
	return arts[0], nil
}

func (repo *articleRepository) UpdateArticle(art article.Article) (article.Article, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	origArt, ok := repo.db.articles[art.ID]
	if !ok {
		return article.Article{}, article.ErrNotFound
	}
	if art.FileURL != "" {
		origArt.FileURL = art.FileURL
	}
	origArt.Title = art.Title
	origArt.Content = art.Content
	origArt.UpdatedAt = art.UpdatedAt

	repo.db.articles[art.ID] = origArt
	return *origArt, nil
}

func (repo *articleRepository) DeleteArticlesByID(ids ...int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.articles, id)
	}
	return nil
}
