package sqlxrepos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/yousuf-shahzad/maths-soc-source/core/leaderboard"
)

type dbEntry struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	Score     int       `db:"score"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (e dbEntry) unpack() leaderboard.Entry {
	return leaderboard.Entry(e)
}

type leaderboardRepository struct {
	db *sqlx.DB
}

var _ leaderboard.Repository = (*leaderboardRepository)(nil) // interface compliance check

func NewLeaderboardRepository(db *sqlx.DB) *leaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (repo leaderboardRepository) UpsertScore(userID, points int, t time.Time) (leaderboard.Entry, error) {
	const query = `
INSERT INTO leaderboard_entry (user_id, score, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET score = leaderboard_entry.score + EXCLUDED.score, updated_at = EXCLUDED.updated_at
RETURNING id, user_id, score, updated_at`

	var e dbEntry
	if err := repo.db.Get(&e, query, userID, points, t.UTC()); err != nil {
		return leaderboard.Entry{}, errors.Wrap(err, "upserting score")
	}
	return e.unpack(), nil
}

func (repo leaderboardRepository) GetEntryByUserID(userID int) (leaderboard.Entry, error) {
	var e dbEntry
	if err := repo.db.Get(&e, `SELECT * FROM leaderboard_entry WHERE user_id = $1`, userID); err != nil {
		return leaderboard.Entry{}, trapNoRowsErr(err, leaderboard.ErrNotFound, "finding leaderboard entry")
	}
	return e.unpack(), nil
}

func (repo leaderboardRepository) QueryTopEntries(limit int) ([]leaderboard.Entry, error) {
	var rows []dbEntry
	err := repo.db.Select(&rows,
		`SELECT * FROM leaderboard_entry ORDER BY score DESC, updated_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying leaderboard")
	}
	entries := make([]leaderboard.Entry, 0, len(rows))
	for _, e := range rows {
		entries = append(entries, e.unpack())
	}
	return entries, nil
}

func (repo leaderboardRepository) ResetAllScores() error {
	if _, err := repo.db.Exec(`DELETE FROM leaderboard_entry`); err != nil {
		return errors.Wrap(err, "resetting leaderboard")
	}
	return nil
}
