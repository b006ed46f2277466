package challenge

import (
	"errors"
	"time"

	"github.com/yousuf-shahzad/maths-soc-source/mathexpr"
)

const (
	// MaxAttempts is the number of submissions allowed per answer box.
	MaxAttempts = 3

	// FirstSolverPoints is awarded for the first full solve of a challenge;
	// every later full solve earns CompletionPoints.
	FirstSolverPoints = 3
	CompletionPoints  = 1
)

var (
	// errors
	ErrNotFound        = errors.New("challenge not found")
	ErrBoxNotFound     = errors.New("answer box not found")
	ErrChallengeLocked = errors.New("challenge is locked")
	ErrNoAttemptsLeft  = errors.New("no attempts remaining")
)

type (
	Repository interface {
		CreateChallenge(chg Challenge) (Challenge, error)
		QueryAllChallenges() ([]Challenge, error)
		GetChallengeByID(id int) (Challenge, error)
		GetLatestChallenge() (Challenge, error)
		UpdateChallenge(chg Challenge, locked *bool) (Challenge, error)
		SetFirstSolver(challengeID, userID int) error
		DeleteChallengesByID(ids ...int) error

		CreateSubmission(sub Submission) (Submission, error)
		// GetSubmissions returns a user's submissions for one answer box,
		// most recent first.
		GetSubmissions(answerBoxID, userID int) ([]Submission, error)
		// GetChallengeSubmissions returns all of a user's submissions for a
		// challenge across its answer boxes.
		GetChallengeSubmissions(challengeID, userID int) ([]Submission, error)
	}

	// ScoreKeeper is the slice of the leaderboard service grading needs.
	ScoreKeeper interface {
		AddScore(userID, points int) error
	}

	Service struct {
		repo   Repository
		scores ScoreKeeper
		cmp    *mathexpr.Comparer
	}
)

func NewService(repo Repository, scores ScoreKeeper) *Service {
	return &Service{repo: repo, scores: scores, cmp: mathexpr.NewComparer()}
}

func (svc *Service) Create(nc NewChallenge) (Challenge, error) {
	now := time.Now().UTC()
	chg := Challenge{
		Title:       nc.Title,
		Content:     nc.Content,
		FileURL:     nc.FileURL,
		KeyStage:    nc.KeyStage,
		AnswerBoxes: canonicalBoxes(0, nc.AnswerBoxes),
		PostedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateChallenge(chg)
}

func (svc *Service) QueryAll() ([]Challenge, error) {
	return svc.repo.QueryAllChallenges()
}

func (svc *Service) GetByID(id int) (Challenge, error) {
	return svc.repo.GetChallengeByID(id)
}

func (svc *Service) GetLatest() (Challenge, error) {
	return svc.repo.GetLatestChallenge()
}

func (svc *Service) Update(id int, uc UpdateChallenge) (Challenge, error) {
	chg := Challenge{
		ID:        id,
		Title:     uc.Title,
		Content:   uc.Content,
		FileURL:   uc.FileURL,
		KeyStage:  uc.KeyStage,
		UpdatedAt: time.Now().UTC(),
	}
	if uc.AnswerBoxes != nil {
		chg.AnswerBoxes = canonicalBoxes(id, uc.AnswerBoxes)
	}
	return svc.repo.UpdateChallenge(chg, uc.Locked)
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteChallengesByID(ids...)
}

// Submissions returns a user's submissions for a challenge, most recent first.
func (svc *Service) Submissions(challengeID, userID int) ([]Submission, error) {
	return svc.repo.GetChallengeSubmissions(challengeID, userID)
}

// AttemptsRemaining reports how many submissions a user has left on a box.
func (svc *Service) AttemptsRemaining(answerBoxID, userID int) (int, error) {
	subs, err := svc.repo.GetSubmissions(answerBoxID, userID)
	if err != nil {
		return 0, err
	}
	rem := MaxAttempts - len(subs)
	if rem < 0 {
		rem = 0
	}
	return rem, nil
}

// Submit grades an answer attempt. A correct answer on the user's last
// unsolved box completes the challenge and awards leaderboard points; the
// first user to complete a challenge earns the bonus.
func (svc *Service) Submit(userID, challengeID int, ns NewSubmission) (Verdict, error) {
	chg, err := svc.repo.GetChallengeByID(challengeID)
	if err != nil {
		return Verdict{}, err
	}
	if chg.Locked {
		return Verdict{}, ErrChallengeLocked
	}

	var box AnswerBox
	for _, b := range chg.AnswerBoxes {
		if b.ID == ns.AnswerBoxID {
			box = b
			break
		}
	}
	if box.ID == 0 {
		return Verdict{}, ErrBoxNotFound
	}

	prev, err := svc.repo.GetSubmissions(box.ID, userID)
	if err != nil {
		return Verdict{}, err
	}
	for _, s := range prev {
		if s.Correct {
			// already solved; don't burn attempts or double-award
			return Verdict{Correct: true, AttemptsRemaining: MaxAttempts - len(prev)}, nil
		}
	}
	if len(prev) >= MaxAttempts {
		return Verdict{}, ErrNoAttemptsLeft
	}

	correct := svc.cmp.Compare(ns.Answer, box.Answer)
	sub := Submission{
		ChallengeID: challengeID,
		AnswerBoxID: box.ID,
		UserID:      userID,
		Answer:      ns.Answer,
		Correct:     correct,
		SubmittedAt: time.Now().UTC(),
	}
	if _, err = svc.repo.CreateSubmission(sub); err != nil {
		return Verdict{}, err
	}

	verdict := Verdict{Correct: correct, AttemptsRemaining: MaxAttempts - len(prev) - 1}
	if !correct {
		return verdict, nil
	}

	complete, err := svc.challengeComplete(chg, userID)
	if err != nil {
		return Verdict{}, err
	}
	if !complete {
		return verdict, nil
	}
	verdict.ChallengeComplete = true

	points := CompletionPoints
	if chg.FirstSolver == 0 {
		if err = svc.repo.SetFirstSolver(chg.ID, userID); err != nil {
			return Verdict{}, err
		}
		points = FirstSolverPoints
	}
	if err = svc.scores.AddScore(userID, points); err != nil {
		return Verdict{}, err
	}
	verdict.PointsAwarded = points
	return verdict, nil
}

// challengeComplete reports whether the user has a correct submission on
// every answer box of the challenge.
func (svc *Service) challengeComplete(chg Challenge, userID int) (bool, error) {
	subs, err := svc.repo.GetChallengeSubmissions(chg.ID, userID)
	if err != nil {
		return false, err
	}
	solved := make(map[int]bool, len(chg.AnswerBoxes))
	for _, s := range subs {
		if s.Correct {
			solved[s.AnswerBoxID] = true
		}
	}
	for _, b := range chg.AnswerBoxes {
		if !solved[b.ID] {
			return false, nil
		}
	}
	return true, nil
}
