// Package inmemdb provides mutex-guarded in-memory repositories used by
// tests and the dev server.
package inmemdb

import (
	"sync"

	"github.com/yousuf-shahzad/maths-soc-source/core/article"
	"github.com/yousuf-shahzad/maths-soc-source/core/challenge"
	"github.com/yousuf-shahzad/maths-soc-source/core/leaderboard"
	"github.com/yousuf-shahzad/maths-soc-source/core/user"
)

type DB struct {
	mutex   sync.RWMutex
	pkCount int

	users       map[int]*user.User
	challenges  map[int]*challenge.Challenge
	submissions map[int]*challenge.Submission
	articles    map[int]*article.Article
	entries     map[int]*leaderboard.Entry // keyed by UserID
}

func NewDB() *DB {
	return &DB{
		users:       make(map[int]*user.User),
		challenges:  make(map[int]*challenge.Challenge),
		submissions: make(map[int]*challenge.Submission),
		articles:    make(map[int]*article.Article),
		entries:     make(map[int]*leaderboard.Entry),
	}
}

// nextPK must be called with the write lock held.
func (db *DB) nextPK() int {
	db.pkCount++
	return db.pkCount
}
