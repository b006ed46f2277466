package challenge

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	challenges map[int]Challenge
	subs       []Submission
	pkCount    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{challenges: make(map[int]Challenge)}
}

func (r *fakeRepo) CreateChallenge(chg Challenge) (Challenge, error) {
	r.pkCount++
	chg.ID = r.pkCount
	for i := range chg.AnswerBoxes {
		r.pkCount++
		chg.AnswerBoxes[i].ID = r.pkCount
		chg.AnswerBoxes[i].ChallengeID = chg.ID
	}
	r.challenges[chg.ID] = chg
	return chg, nil
}

func (r *fakeRepo) QueryAllChallenges() ([]Challenge, error) {
	all := make([]Challenge, 0, len(r.challenges))
	for _, chg := range r.challenges {
		all = append(all, chg)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *fakeRepo) GetChallengeByID(id int) (Challenge, error) {
	chg, ok := r.challenges[id]
	if !ok {
		return Challenge{}, ErrNotFound
	}
	return chg, nil
}

func (r *fakeRepo) GetLatestChallenge() (Challenge, error) {
	var latest Challenge
	for _, chg := range r.challenges {
		if chg.ID > latest.ID {
			latest = chg
		}
	}
	if latest.ID == 0 {
		return Challenge{}, ErrNotFound
	}
	return latest, nil
}

func (r *fakeRepo) UpdateChallenge(chg Challenge, locked *bool) (Challenge, error) {
	orig, ok := r.challenges[chg.ID]
	if !ok {
		return Challenge{}, ErrNotFound
	}
	orig.Title = chg.Title
	orig.Content = chg.Content
	if locked != nil {
		orig.Locked = *locked
	}
	r.challenges[chg.ID] = orig
	return orig, nil
}

func (r *fakeRepo) SetFirstSolver(challengeID, userID int) error {
	chg, ok := r.challenges[challengeID]
	if !ok {
		return ErrNotFound
	}
	chg.FirstSolver = userID
	r.challenges[challengeID] = chg
	return nil
}

func (r *fakeRepo) DeleteChallengesByID(ids ...int) error {
	for _, id := range ids {
		delete(r.challenges, id)
	}
	return nil
}

func (r *fakeRepo) CreateSubmission(sub Submission) (Submission, error) {
	r.pkCount++
	sub.ID = r.pkCount
	r.subs = append(r.subs, sub)
	return sub, nil
}

func (r *fakeRepo) GetSubmissions(answerBoxID, userID int) ([]Submission, error) {
	var out []Submission
	for _, s := range r.subs {
		if s.AnswerBoxID == answerBoxID && s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetChallengeSubmissions(challengeID, userID int) ([]Submission, error) {
	var out []Submission
	for _, s := range r.subs {
		if s.ChallengeID == challengeID && s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeScores struct {
	awarded map[int]int
}

func (s *fakeScores) AddScore(userID, points int) error {
	if s.awarded == nil {
		s.awarded = make(map[int]int)
	}
	s.awarded[userID] += points
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeScores, Challenge) {
	t.Helper()
	repo := newFakeRepo()
	scores := &fakeScores{}
	svc := NewService(repo, scores)

	chg, err := svc.Create(NewChallenge{
		Title:   "Week 12",
		Content: "Expand and simplify.",
		AnswerBoxes: []NewAnswerBox{
			{Label: "a", Answer: "(x+1)^2"},
			{Label: "b", Answer: "42"},
		},
	})
	require.NoError(t, err)
	require.Len(t, chg.AnswerBoxes, 2)
	return svc, repo, scores, chg
}

func TestServiceCreateStoresCanonicalAnswers(t *testing.T) {
	_, repo, _, chg := newTestService(t)

	stored := repo.challenges[chg.ID]
	// equivalent notations must land on the same stored form
	assert.Equal(t, "2*x + x^2 + 1", stored.AnswerBoxes[0].Answer)
	assert.Equal(t, "42", stored.AnswerBoxes[1].Answer)
}

func TestServiceSubmit(t *testing.T) {
	t.Run("correct answer in different notation", func(t *testing.T) {
		svc, _, _, chg := newTestService(t)

		v, err := svc.Submit(1, chg.ID, NewSubmission{AnswerBoxID: chg.AnswerBoxes[0].ID, Answer: `x^{2}+2x+1`})
		require.NoError(t, err)
		assert.True(t, v.Correct)
		assert.Equal(t, MaxAttempts-1, v.AttemptsRemaining)
		assert.False(t, v.ChallengeComplete)
		assert.Equal(t, 0, v.PointsAwarded)
	})

	t.Run("wrong answer burns an attempt", func(t *testing.T) {
		svc, _, _, chg := newTestService(t)

		v, err := svc.Submit(1, chg.ID, NewSubmission{AnswerBoxID: chg.AnswerBoxes[1].ID, Answer: "41"})
		require.NoError(t, err)
		assert.False(t, v.Correct)
		assert.Equal(t, MaxAttempts-1, v.AttemptsRemaining)
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		svc, _, _, chg := newTestService(t)
		box := chg.AnswerBoxes[1].ID

		for i := 0; i < MaxAttempts; i++ {
			_, err := svc.Submit(1, chg.ID, NewSubmission{AnswerBoxID: box, Answer: "41"})
			require.NoError(t, err)
		}
		_, err := svc.Submit(1, chg.ID, NewSubmission{AnswerBoxID: box, Answer: "42"})
		assert.Equal(t, ErrNoAttemptsLeft, err)
	})

	t.Run("locked challenge rejects submissions", func(t *testing.T) {
		svc, _, _, chg := newTestService(t)
		locked := true
		_, err := svc.Update(chg.ID, UpdateChallenge{Locked: &locked})
		require.NoError(t, err)

		_, err = svc.Submit(1, chg.ID, NewSubmission{AnswerBoxID: chg.AnswerBoxes[0].ID, Answer: "42"})
		assert.Equal(t, ErrChallengeLocked, err)
	})

	t.Run("unknown answer box", func(t *testing.T) {
		svc, _, _, chg := newTestService(t)
		_, err := svc.Submit(1, chg.ID, NewSubmission{AnswerBoxID: 999, Answer: "42"})
		assert.Equal(t, ErrBoxNotFound, err)
	})

	t.Run("first full solve gets the bonus, later solvers do not", func(t *testing.T) {
		svc, repo, scores, chg := newTestService(t)

		solve := func(userID int) Verdict {
			_, err := svc.Submit(userID, chg.ID, NewSubmission{AnswerBoxID: chg.AnswerBoxes[0].ID, Answer: "x^2+2x+1"})
			require.NoError(t, err)
			v, err := svc.Submit(userID, chg.ID, NewSubmission{AnswerBoxID: chg.AnswerBoxes[1].ID, Answer: "42"})
			require.NoError(t, err)
			return v
		}

		v := solve(1)
		assert.True(t, v.ChallengeComplete)
		assert.Equal(t, FirstSolverPoints, v.PointsAwarded)
		assert.Equal(t, 1, repo.challenges[chg.ID].FirstSolver)

		v = solve(2)
		assert.True(t, v.ChallengeComplete)
		assert.Equal(t, CompletionPoints, v.PointsAwarded)
		assert.Equal(t, 1, repo.challenges[chg.ID].FirstSolver)

		assert.Equal(t, FirstSolverPoints, scores.awarded[1])
		assert.Equal(t, CompletionPoints, scores.awarded[2])
	})

	t.Run("resubmitting a solved box is a no-op", func(t *testing.T) {
		svc, _, scores, chg := newTestService(t)
		box := chg.AnswerBoxes[1].ID

		_, err := svc.Submit(1, chg.ID, NewSubmission{AnswerBoxID: box, Answer: "42"})
		require.NoError(t, err)
		v, err := svc.Submit(1, chg.ID, NewSubmission{AnswerBoxID: box, Answer: "42"})
		require.NoError(t, err)
		assert.True(t, v.Correct)
		assert.Zero(t, v.PointsAwarded)
		assert.Empty(t, scores.awarded)
	})
}
