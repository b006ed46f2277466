package sqlxrepos

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/yousuf-shahzad/maths-soc-source/core/challenge"
)

type dbChallenge struct {
	ID          int         `db:"id"`
	Title       string      `db:"title"`
	Content     string      `db:"content"`
	FileURL     null.String `db:"file_url"`
	KeyStage    int         `db:"key_stage"`
	Locked      bool        `db:"locked"`
	FirstSolver null.Int    `db:"first_solver"`
	PostedAt    time.Time   `db:"posted_at"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func packChallenge(chg challenge.Challenge) dbChallenge {
	return dbChallenge{
		ID:          chg.ID,
		Title:       chg.Title,
		Content:     chg.Content,
		FileURL:     null.NewString(chg.FileURL, chg.FileURL != ""),
		KeyStage:    chg.KeyStage,
		Locked:      chg.Locked,
		FirstSolver: null.NewInt(chg.FirstSolver, chg.FirstSolver != 0),
		PostedAt:    chg.PostedAt.UTC(),
		CreatedAt:   chg.CreatedAt.UTC(),
		UpdatedAt:   chg.UpdatedAt.UTC(),
	}
}

func (c dbChallenge) unpack() challenge.Challenge {
	return challenge.Challenge{
		ID:          c.ID,
		Title:       c.Title,
		Content:     c.Content,
		FileURL:     c.FileURL.String,
		KeyStage:    c.KeyStage,
		Locked:      c.Locked,
		FirstSolver: c.FirstSolver.Int,
		PostedAt:    c.PostedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type dbAnswerBox struct {
	ID          int    `db:"id"`
	ChallengeID int    `db:"challenge_id"`
	Label       string `db:"label"`
	Answer      string `db:"answer"`
	Position    int    `db:"position"`
}

func (b dbAnswerBox) unpack() challenge.AnswerBox {
	return challenge.AnswerBox(b)
}

type dbSubmission struct {
	ID          int       `db:"id"`
	ChallengeID int       `db:"challenge_id"`
	AnswerBoxID int       `db:"answer_box_id"`
	UserID      int       `db:"user_id"`
	Answer      string    `db:"answer"`
	Correct     bool      `db:"correct"`
	SubmittedAt time.Time `db:"submitted_at"`
}

func (s dbSubmission) unpack() challenge.Submission {
	return challenge.Submission(s)
}

func unpackSubmissions(rows []dbSubmission) []challenge.Submission {
	subs := make([]challenge.Submission, 0, len(rows))
	for _, s := range rows {
		subs = append(subs, s.unpack())
	}
	return subs
}

type challengeRepository struct {
	db *sqlx.DB
}

var _ challenge.Repository = (*challengeRepository)(nil) // interface compliance check

func NewChallengeRepository(db *sqlx.DB) *challengeRepository {
	return &challengeRepository{db: db}
}

func (repo challengeRepository) CreateChallenge(chg challenge.Challenge) (challenge.Challenge, error) {
	const query = `
INSERT INTO challenge (title, content, file_url, key_stage, locked, posted_at, created_at, updated_at)
VALUES (:title, :content, :file_url, :key_stage, :locked, :posted_at, :created_at, :updated_at)
RETURNING id`

	rows, err := repo.db.NamedQuery(query, packChallenge(chg))
	if err != nil {
		return challenge.Challenge{}, errors.Wrap(err, "inserting challenge")
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		if err = rows.Scan(&chg.ID); err != nil {
			return challenge.Challenge{}, errors.Wrap(err, "inserting challenge")
		}
	}

	boxes, err := repo.replaceBoxes(chg.ID, chg.AnswerBoxes)
	if err != nil {
		return challenge.Challenge{}, err
	}
	chg.AnswerBoxes = boxes
	return chg, nil
}

// replaceBoxes swaps a challenge's answer boxes wholesale. Submissions on the
// old boxes cascade away with them.
func (repo challengeRepository) replaceBoxes(challengeID int, boxes []challenge.AnswerBox) ([]challenge.AnswerBox, error) {
	if _, err := repo.db.Exec(`DELETE FROM answer_box WHERE challenge_id = $1`, challengeID); err != nil {
		return nil, errors.Wrap(err, "replacing answer boxes")
	}
	out := make([]challenge.AnswerBox, 0, len(boxes))
	for _, b := range boxes {
		b.ChallengeID = challengeID
		if err := repo.db.Get(&b.ID,
			`INSERT INTO answer_box (challenge_id, label, answer, position) VALUES ($1, $2, $3, $4) RETURNING id`,
			b.ChallengeID, b.Label, b.Answer, b.Position,
		); err != nil {
			return nil, errors.Wrap(err, "inserting answer box")
		}
		out = append(out, b)
	}
	return out, nil
}

func (repo challengeRepository) loadBoxes(chg *challenge.Challenge) error {
	var rows []dbAnswerBox
	err := repo.db.Select(&rows, `SELECT * FROM answer_box WHERE challenge_id = $1 ORDER BY position`, chg.ID)
	if err != nil {
		return errors.Wrap(err, "loading answer boxes")
	}
	chg.AnswerBoxes = make([]challenge.AnswerBox, 0, len(rows))
	for _, b := range rows {
		chg.AnswerBoxes = append(chg.AnswerBoxes, b.unpack())
	}
	return nil
}

func (repo challengeRepository) QueryAllChallenges() ([]challenge.Challenge, error) {
	var rows []dbChallenge
	if err := repo.db.Select(&rows, `SELECT * FROM challenge ORDER BY posted_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying challenges")
	}
	challenges := make([]challenge.Challenge, 0, len(rows))
	for _, c := range rows {
		chg := c.unpack()
		if err := repo.loadBoxes(&chg); err != nil {
			return nil, err
		}
		challenges = append(challenges, chg)
	}
	return challenges, nil
}

func (repo challengeRepository) GetChallengeByID(id int) (challenge.Challenge, error) {
	var c dbChallenge
	if err := repo.db.Get(&c, `SELECT * FROM challenge WHERE id = $1`, id); err != nil {
		return challenge.Challenge{}, trapNoRowsErr(err, challenge.ErrNotFound, "finding challenge by ID")
	}
	chg := c.unpack()
	if err := repo.loadBoxes(&chg); err != nil {
		return challenge.Challenge{}, err
	}
	return chg, nil
}

func (repo challengeRepository) GetLatestChallenge() (challenge.Challenge, error) {
	var c dbChallenge
	if err := repo.db.Get(&c, `SELECT * FROM challenge ORDER BY posted_at DESC LIMIT 1`); err != nil {
		return challenge.Challenge{}, trapNoRowsErr(err, challenge.ErrNotFound, "finding latest challenge")
	}
	chg := c.unpack()
	if err := repo.loadBoxes(&chg); err != nil {
		return challenge.Challenge{}, err
	}
	return chg, nil
}

func (repo challengeRepository) UpdateChallenge(chg challenge.Challenge, locked *bool) (challenge.Challenge, error) {
	// only save set fields
	sets := []string{"title = :title", "content = :content", "updated_at = :updated_at"}
	if chg.FileURL != "" {
		sets = append(sets, "file_url = :file_url")
	}
	if chg.KeyStage != 0 {
		sets = append(sets, "key_stage = :key_stage")
	}
	row := packChallenge(chg)
	if locked != nil {
		sets = append(sets, "locked = :locked")
		row.Locked = *locked
	}

	query := fmt.Sprintf(`UPDATE challenge SET %s WHERE id = :id`, strings.Join(sets, ", "))
	res, err := repo.db.NamedExec(query, row)
	if err != nil {
		return challenge.Challenge{}, errors.Wrap(err, "updating challenge")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return challenge.Challenge{}, challenge.ErrNotFound
	}

	if chg.AnswerBoxes != nil {
		if _, err = repo.replaceBoxes(chg.ID, chg.AnswerBoxes); err != nil {
			return challenge.Challenge{}, err
		}
	}
	return repo.GetChallengeByID(chg.ID)
}

func (repo challengeRepository) SetFirstSolver(challengeID, userID int) error {
	const query = `UPDATE challenge SET first_solver = $1 WHERE id = $2 AND first_solver IS NULL`
	if _, err := repo.db.Exec(query, userID, challengeID); err != nil {
		return errors.Wrap(err, "setting first solver")
	}
	return nil
}

func (repo challengeRepository) DeleteChallengesByID(ids ...int) error {
	query, args, err := sqlx.In(`DELETE FROM challenge WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting challenges")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting challenges")
	}
	return nil
}

func (repo challengeRepository) CreateSubmission(sub challenge.Submission) (challenge.Submission, error) {
	const query = `
INSERT INTO submission (challenge_id, answer_box_id, user_id, answer, correct, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	err := repo.db.Get(&sub.ID, query,
		sub.ChallengeID, sub.AnswerBoxID, sub.UserID, sub.Answer, sub.Correct, sub.SubmittedAt.UTC())
	if err != nil {
		return challenge.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo challengeRepository) GetSubmissions(answerBoxID, userID int) ([]challenge.Submission, error) {
	var rows []dbSubmission
	err := repo.db.Select(&rows,
		`SELECT * FROM submission WHERE answer_box_id = $1 AND user_id = $2 ORDER BY submitted_at DESC`,
		answerBoxID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return unpackSubmissions(rows), nil
}

func (repo challengeRepository) GetChallengeSubmissions(challengeID, userID int) ([]challenge.Submission, error) {
	var rows []dbSubmission
	err := repo.db.Select(&rows,
		`SELECT * FROM submission WHERE challenge_id = $1 AND user_id = $2 ORDER BY submitted_at DESC`,
		challengeID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return unpackSubmissions(rows), nil
}
