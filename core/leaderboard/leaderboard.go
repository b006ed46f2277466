package leaderboard

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("leaderboard entry not found")

// Entry is one user's standing. Ordering is by Score descending, ties broken
// by earliest UpdatedAt (first to reach the score ranks higher).
type Entry struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type (
	Repository interface {
		// UpsertScore adds points to the user's entry, creating it at the
		// given score when absent.
		UpsertScore(userID, points int, t time.Time) (Entry, error)
		GetEntryByUserID(userID int) (Entry, error)
		QueryTopEntries(limit int) ([]Entry, error)
		ResetAllScores() error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) AddScore(userID, points int) error {
	_, err := svc.repo.UpsertScore(userID, points, time.Now().UTC())
	return err
}

func (svc *Service) GetByUserID(userID int) (Entry, error) {
	return svc.repo.GetEntryByUserID(userID)
}

// Top returns the n highest-ranked entries; n <= 0 defaults to 10.
func (svc *Service) Top(n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}
	return svc.repo.QueryTopEntries(n)
}

// Reset wipes all scores, typically at the start of a school year.
func (svc *Service) Reset() error {
	return svc.repo.ResetAllScores()
}
