package model

import "time"

// QuestionType is the closed set of supported question types. The legacy
// "number" and "time" types still occur in imported data and keep their
// analytics behavior, but new questions are created with the canonical types.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	NumericChoice  QuestionType = "numeric_choice"
	ShortText      QuestionType = "short_text"
	LongText       QuestionType = "long_text"
	Date           QuestionType = "date"
	DateTime       QuestionType = "datetime"

	// legacy types
	Number QuestionType = "number"
	Time   QuestionType = "time"
)

// ParseQuestionType normalizes a raw type tag. The old frontend submitted
// "radio" and "checkbox" for choice questions.
func ParseQuestionType(s string) QuestionType {
	switch s {
	case "radio":
		return SingleChoice
	case "checkbox":
		return MultipleChoice
	default:
		return QuestionType(s)
	}
}

// IsChoice reports whether answers to this type are drawn from an option set.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice || t == NumericChoice
}

type Form struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsPublic    bool       `json:"is_public"`
	IsLocked    bool       `json:"is_locked"`
	OwnerID     int        `json:"owner_id,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
}

type Question struct {
	ID         int          `json:"id"`
	FormID     int          `json:"form_id,omitempty"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	IsRequired bool         `json:"is_required"`
	Order      int          `json:"order"`
	MaxChoices int          `json:"max_choices,omitempty"`
	ImageURL   string       `json:"image_url,omitempty"`
	Options    []Option     `json:"options,omitempty"`
}

type Option struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"-"`
	Text       string `json:"text"`
	ImageURL   string `json:"image_url,omitempty"`
}

// Answer holds one normalized value. Value is always the canonical string
// form: an option id (or comma-joined ids) for choice types, the raw text for
// text types, ISO-8601 for date and datetime. SubmissionID groups the answers
// of one submitted batch.
type Answer struct {
	ID           int       `json:"id"`
	QuestionID   int       `json:"question_id"`
	UserID       *int      `json:"user_id,omitempty"`
	SubmissionID string    `json:"submission_id"`
	Value        string    `json:"value"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

const (
	RoleUser       = "user"
	RoleSuperadmin = "superadmin"
)

type Collaborator struct {
	ID     int    `json:"id"`
	FormID int    `json:"form_id"`
	UserID int    `json:"user_id"`
	Role   string `json:"role"` // editor or viewer
}
