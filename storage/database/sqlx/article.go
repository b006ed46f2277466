package sqlxrepos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/yousuf-shahzad/maths-soc-source/core/article"
)

type dbArticle struct {
	ID        int         `db:"id"`
	Title     string      `db:"title"`
	Content   string      `db:"content"`
	Kind      string      `db:"kind"`
	FileURL   null.String `db:"file_url"`
	AuthorID  null.Int    `db:"author_id"`
	PostedAt  time.Time   `db:"posted_at"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func packArticle(art article.Article) dbArticle {
	return dbArticle{
		ID:        art.ID,
		Title:     art.Title,
		Content:   art.Content,
		Kind:      art.Kind,
		FileURL:   null.NewString(art.FileURL, art.FileURL != ""),
		AuthorID:  null.NewInt(art.AuthorID, art.AuthorID != 0),
		PostedAt:  art.PostedAt.UTC(),
		CreatedAt: art.CreatedAt.UTC(),
		UpdatedAt: art.UpdatedAt.UTC(),
	}
}

func (a dbArticle) unpack() article.Article {
	return article.Article{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Kind:      a.Kind,
		FileURL:   a.FileURL.String,
		AuthorID:  a.AuthorID.Int,
		PostedAt:  a.PostedAt,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type articleRepository struct {
	db *sqlx.DB
}

var _ article.Repository = (*articleRepository)(nil) // interface compliance check

func NewArticleRepository(db *sqlx.DB) *articleRepository {
	return &articleRepository{db: db}
}

func (repo articleRepository) CreateArticle(art article.Article) (article.Article, error) {
	const query = `
INSERT INTO article (title, content, kind, file_url, author_id, posted_at, created_at, updated_at)
VALUES (:title, :content, :kind, :file_url, :author_id, :posted_at, :created_at, :updated_at)
RETURNING id`

	rows, err := repo.db.NamedQuery(query, packArticle(art))
	if err != nil {
		return article.Article{}, errors.Wrap(err, "inserting article")
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		if err = rows.Scan(&art.ID); err != nil {
			return article.Article{}, errors.Wrap(err, "inserting article")
		}
	}
	return art, nil
}

func (repo articleRepository) QueryArticles(kind string) ([]article.Article, error) {
	query := `SELECT * FROM article`
	var args []interface{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY posted_at DESC`

	var rows []dbArticle
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying articles")
	}
	arts := make([]article.Article, 0, len(rows))
	for _, a := range rows {
		arts = append(arts, a.unpack())
	}
	return arts, nil
}

func (repo articleRepository) GetArticleByID(id int) (article.Article, error) {
	var a dbArticle
	if err := repo.db.Get(&a, `SELECT * FROM article WHERE id = $1`, id); err != nil {
		return article.Article{}, trapNoRowsErr(err, article.ErrNotFound, "finding article by ID")
	}
	return a.unpack(), nil
}

func (repo articleRepository) GetLatestArticle(kind string) (article.Article, error) {
	query := `SELECT * FROM article`
	var args []interface{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY posted_at DESC LIMIT 1`

	var a dbArticle
	if err := repo.db.Get(&a, query, args...); err != nil {
		return article.Article{}, trapNoRowsErr(err, article.ErrNotFound, "finding latest article")
	}
	return a.unpack(), nil
}

func (repo articleRepository) UpdateArticle(art article.Article) (article.Article, error) {
	const query = `
UPDATE article SET title = :title, content = :content, file_url = :file_url, updated_at = :updated_at
WHERE id = :id`

	res, err := repo.db.NamedExec(query, packArticle(art))
	if err != nil {
		return article.Article{}, errors.Wrap(err, "updating article")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return article.Article{}, article.ErrNotFound
	}
	return repo.GetArticleByID(art.ID)
}

func (repo articleRepository) DeleteArticlesByID(ids ...int) error {
	query, args, err := sqlx.In(`DELETE FROM article WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting articles")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting articles")
	}
	return nil
}
