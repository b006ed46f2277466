package inmemdb

import (
	"sort"

	"github.com/yousuf-shahzad/maths-soc-source/core/challenge"
)

type challengeRepository struct {
	db *DB
}

var _ challenge.Repository = (*challengeRepository)(nil) // interface compliance check

func NewChallengeRepository(db *DB) *challengeRepository {
	return &challengeRepository{db: db}
}

func (repo *challengeRepository) query() []challenge.Challenge {
	challenges := make([]challenge.Challenge, 0, len(repo.db.challenges))
	for _, chg := range repo.db.challenges {
		challenges = append(challenges, *chg)
	}
	sort.Slice(challenges, func(i, j int) bool {
		return challenges[i].PostedAt.After(challenges[j].PostedAt)
	})
	return challenges
}

func (repo *challengeRepository) CreateChallenge(chg challenge.Challenge) (challenge.Challenge, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	chg.ID = repo.db.nextPK()
	for i := range chg.AnswerBoxes {
		chg.AnswerBoxes[i].ID = repo.db.nextPK()
		chg.AnswerBoxes[i].ChallengeID = chg.ID
	}
	repo.db.challenges[chg.ID] = &chg
	return chg, nil
}

func (repo *challengeRepository) QueryAllChallenges() ([]challenge.Challenge, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *challengeRepository) GetChallengeByID(id int) (challenge.Challenge, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if chg, ok := repo.db.challenges[id]; ok {
		return *chg, nil
	}
	return challenge.Challenge{}, challenge.ErrNotFound
}

func (repo *challengeRepository) GetLatestChallenge() (challenge.Challenge, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	challenges := repo.query()
	if len(challenges) == 0 {
		return challenge.Challenge{}, challenge.ErrNotFound
	}
	return challenges[0], nil
}

func (repo *challengeRepository) UpdateChallenge(chg challenge.Challenge, locked *bool) (challenge.Challenge, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	origChg, ok := repo.db.challenges[chg.ID]
	if !ok {
		return challenge.Challenge{}, challenge.ErrNotFound
	}
	if chg.FileURL != "" {
		origChg.FileURL = chg.FileURL
	}
	if chg.KeyStage != 0 {
		origChg.KeyStage = chg.KeyStage
	}
	if chg.AnswerBoxes != nil {
		for i := range chg.AnswerBoxes {
			chg.AnswerBoxes[i].ID = repo.db.nextPK()
			chg.AnswerBoxes[i].ChallengeID = chg.ID
		}
		origChg.AnswerBoxes = chg.AnswerBoxes
	}
	if locked != nil {
		origChg.Locked = *locked
	}
	origChg.Title = chg.Title
	origChg.Content = chg.Content
	origChg.UpdatedAt = chg.UpdatedAt

	repo.db.challenges[chg.ID] = origChg
	return *origChg, nil
}

func (repo *challengeRepository) SetFirstSolver(challengeID, userID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	chg, ok := repo.db.challenges[challengeID]
	if !ok {
		return challenge.ErrNotFound
	}
	if chg.FirstSolver == 0 {
		chg.FirstSolver = userID
	}
	return nil
}

func (repo *challengeRepository) DeleteChallengesByID(ids ...int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.challenges, id)
		for subID, sub := range repo.db.submissions {
			if sub.ChallengeID == id {
				delete(repo.db.submissions, subID)
			}
		}
	}
	return nil
}

func (repo *challengeRepository) CreateSubmission(sub challenge.Submission) (challenge.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sub.ID = repo.db.nextPK()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *challengeRepository) GetSubmissions(answerBoxID, userID int) ([]challenge.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []challenge.Submission
	for _, sub := range repo.db.submissions {
		if sub.AnswerBoxID == answerBoxID && sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	sortSubmissions(out)
	return out, nil
}

func (repo *challengeRepository) GetChallengeSubmissions(challengeID, userID int) ([]challenge.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []challenge.Submission
	for _, sub := range repo.db.submissions {
		if sub.ChallengeID == challengeID && sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	sortSubmissions(out)
	return out, nil
}

// sortSubmissions orders most recent first, matching the SQL repositories.
func sortSubmissions(subs []challenge.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].ID > subs[j].ID
		}
		return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
	})
}
