package challenge

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yousuf-shahzad/maths-soc-source/core"
	"github.com/yousuf-shahzad/maths-soc-source/mathexpr"
)

type Challenge struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	FileURL     string      `json:"file_url,omitempty"` // optional uploaded asset
	KeyStage    int         `json:"key_stage,omitempty"`
	Locked      bool        `json:"locked"`
	FirstSolver int         `json:"first_solver,omitempty"` // User.ID of the first full solve; 0 when unsolved
	AnswerBoxes []AnswerBox `json:"answer_boxes,omitempty"`
	PostedAt    time.Time   `json:"posted_at"`  // UTC
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// AnswerBox is one gradeable part of a Challenge. Answer holds the canonical
// form of the correct answer so equivalent submissions in any notation match.
type AnswerBox struct {
	ID          int    `json:"id"`
	ChallengeID int    `json:"challenge_id"`
	Label       string `json:"label"`
	Answer      string `json:"-"` // canonical; never exposed
	Position    int    `json:"position"`
}

// Submission is a graded answer attempt on one AnswerBox.
type Submission struct {
	ID          int       `json:"id"`
	ChallengeID int       `json:"challenge_id"`
	AnswerBoxID int       `json:"answer_box_id"`
	UserID      int       `json:"user_id"`
	Answer      string    `json:"answer"`
	Correct     bool      `json:"correct"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

// NewAnswerBox contains information needed to create a new AnswerBox.
type NewAnswerBox struct {
	Label  string `json:"label"`
	Answer string `json:"answer" validate:"required"`
}

// NewChallenge contains information needed to create a new Challenge.
type NewChallenge struct {
	Title       string         `json:"title" validate:"required"`
	Content     string         `json:"content" validate:"required"`
	FileURL     string         `json:"file_url" validate:"omitempty,url"`
	KeyStage    int            `json:"key_stage" validate:"omitempty,min=3,max=5"`
	AnswerBoxes []NewAnswerBox `json:"answer_boxes" validate:"required,min=1,dive"`
}

func (nc *NewChallenge) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	for i := range nc.AnswerBoxes {
		nc.AnswerBoxes[i].Label = core.CleanString(nc.AnswerBoxes[i].Label)
		nc.AnswerBoxes[i].Answer = core.CleanString(nc.AnswerBoxes[i].Answer)
	}
	return validate.Struct(nc)
}

// UpdateChallenge defines what information may be provided to modify an
// existing Challenge. Answer boxes are replaced wholesale when provided.
type UpdateChallenge struct {
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	FileURL     string         `json:"file_url" validate:"omitempty,url"`
	KeyStage    int            `json:"key_stage" validate:"omitempty,min=3,max=5"`
	Locked      *bool          `json:"locked"`
	AnswerBoxes []NewAnswerBox `json:"answer_boxes" validate:"omitempty,min=1,dive"`
}

func (uc *UpdateChallenge) Validate(origChg Challenge, validate *validator.Validate) error {
	title := core.CleanString(uc.Title)
	if title != "" {
		uc.Title = title
	} else {
		uc.Title = origChg.Title
	}
	if uc.Content == "" {
		uc.Content = origChg.Content
	}
	for i := range uc.AnswerBoxes {
		uc.AnswerBoxes[i].Label = core.CleanString(uc.AnswerBoxes[i].Label)
		uc.AnswerBoxes[i].Answer = core.CleanString(uc.AnswerBoxes[i].Answer)
	}
	return validate.Struct(uc)
}

// NewSubmission is an answer attempt as posted by a student.
type NewSubmission struct {
	AnswerBoxID int    `json:"answer_box_id" validate:"required"`
	Answer      string `json:"answer" validate:"required"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Answer = core.CleanString(ns.Answer)
	return validate.Struct(ns)
}

// Verdict is the outcome of grading one submission.
type Verdict struct {
	Correct           bool `json:"correct"`
	AttemptsRemaining int  `json:"attempts_remaining"`
	ChallengeComplete bool `json:"challenge_complete"`
	PointsAwarded     int  `json:"points_awarded"`
}

// canonicalBoxes normalizes the correct answers for storage.
func canonicalBoxes(challengeID int, boxes []NewAnswerBox) []AnswerBox {
	out := make([]AnswerBox, 0, len(boxes))
	for i, nb := range boxes {
		out = append(out, AnswerBox{
			ChallengeID: challengeID,
			Label:       nb.Label,
			Answer:      mathexpr.NormalizeForStorage(nb.Answer),
			Position:    i + 1,
		})
	}
	return out
}
