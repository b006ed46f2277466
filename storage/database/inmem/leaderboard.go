package inmemdb

import (
	"sort"
	"time"

	"github.com/yousuf-shahzad/maths-soc-source/core/leaderboard"
)

type leaderboardRepository struct {
	db *DB
}

var _ leaderboard.Repository = (*leaderboardRepository)(nil) // interface compliance check

func NewLeaderboardRepository(db *DB) *leaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (repo *leaderboardRepository) UpsertScore(userID, points int, t time.Time) (leaderboard.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	entry, ok := repo.db.entries[userID]
	if !ok {
		entry = &leaderboard.Entry{ID: repo.db.nextPK(), UserID: userID}
		repo.db.entries[userID] = entry
	}
	entry.Score += points
	entry.UpdatedAt = t
	return *entry, nil
}

func (repo *leaderboardRepository) GetEntryByUserID(userID int) (leaderboard.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if entry, ok := repo.db.entries[userID]; ok {
		return *entry, nil
	}
	return leaderboard.Entry{}, leaderboard.ErrNotFound
}

func (repo *leaderboardRepository) QueryTopEntries(limit int) ([]leaderboard.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]leaderboard.Entry, 0, len(repo.db.entries))
	for _, entry := range repo.db.entries {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score == entries[j].Score {
			return entries[i].UpdatedAt.Before(entries[j].UpdatedAt)
		}
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (repo *leaderboardRepository) ResetAllScores() error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.entries = make(map[int]*leaderboard.Entry)
	return nil
}
