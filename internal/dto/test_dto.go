package dto

import "time"

// OptionResponseDTO never carries the correctness flag.
type OptionResponseDTO struct {
	ID              uint   `json:"id"`
	Text            string `json:"text"`
	OrderInQuestion int    `json:"order_in_question"`
}

// QuestionResponseDTO is used for displaying question details to users.
type QuestionResponseDTO struct {
	ID          uint                `json:"id"`
	TestID      uint                `json:"test_id"`
	Text        string              `json:"text"`
	Type        string              `json:"type"`
	OrderInTest int                 `json:"order_in_test"`
	Points      int                 `json:"points"`
	Options     []OptionResponseDTO `json:"options"`
}

// TestResponseDTO is used for displaying full test details to users.
type TestResponseDTO struct {
	ID                uint                  `json:"id"`
	CourseID          uint                  `json:"course_id"`
	Title             string                `json:"title"`
	Description       string                `json:"description,omitempty"`
	PassingScore      int                   `json:"passing_score"`
	DurationMinutes   int                   `json:"duration_minutes"`
	TotalPoints       int                   `json:"total_points"`
	DueDate           *time.Time            `json:"due_date,omitempty"`
	MaxAttempts       int                   `json:"max_attempts"`
	IsCertificateTest bool                  `json:"is_certificate_test"`
	Questions         []QuestionResponseDTO `json:"questions"`
	CreatedAt         time.Time             `json:"created_at"`
}

// TestSummaryDTO is used for listing tests available to users.
type TestSummaryDTO struct {
	ID                uint      `json:"id"`
	CourseID          uint      `json:"course_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	PassingScore      int       `json:"passing_score"`
	DurationMinutes   int       `json:"duration_minutes"`
	TotalPoints       int       `json:"total_points"`
	MaxAttempts       int       `json:"max_attempts"`
	IsCertificateTest bool      `json:"is_certificate_test"`
	QuestionCount     int       `json:"question_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// StartAttemptResponseDTO is returned by the start endpoint.
type StartAttemptResponseDTO struct {
	AttemptID       uint       `json:"attempt_id"`
	AttemptNumber   int        `json:"attempt_number"`
	DurationMinutes int        `json:"duration"`
	StartTime       time.Time  `json:"start_time"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Resumed         bool       `json:"resumed"`
}

// SubmitResultDTO summarises a graded attempt.
type SubmitResultDTO struct {
	AttemptID         uint    `json:"attempt_id"`
	AttemptNumber     int     `json:"attempt_number"`
	Score             int     `json:"score"`
	MaxScore          int     `json:"max_score"`
	PercentageScore   int     `json:"percentage_score"`
	Passed            bool    `json:"passed"`
	CertificateIssued bool    `json:"certificate_issued"`
	CertificateID     *string `json:"certificate_id,omitempty"`
}

// AnswerResponseDTO is used for displaying individual graded answers within an attempt.
type AnswerResponseDTO struct {
	ID                uint   `json:"id"`
	QuestionID        uint   `json:"question_id"`
	SelectedOptionIDs []uint `json:"selected_option_ids"`
	TextAnswer        string `json:"text_answer,omitempty"`
	IsCorrect         bool   `json:"is_correct"`
	PointsEarned      int    `json:"points_earned"`
}

// TestAttemptSummaryDTO is for listing a user's attempts for a particular test.
type TestAttemptSummaryDTO struct {
	ID                  uint       `json:"id"`
	TestID              uint       `json:"test_id"`
	StudentID           uint       `json:"student_id"`
	AttemptNumber       int        `json:"attempt_number"`
	StartTime           time.Time  `json:"start_time"`
	EndTime             *time.Time `json:"end_time,omitempty"`
	Score               int        `json:"score"`
	TotalPossiblePoints int        `json:"total_possible_points"`
	PercentageScore     int        `json:"percentage_score"`
	Passed              bool       `json:"passed"`
	Status              string     `json:"status"`
	CertificateIssued   bool       `json:"certificate_issued"`
	CertificateID       *string    `json:"certificate_id,omitempty"`
}

// TestAttemptDetailDTO is for displaying the full details of a specific attempt.
type TestAttemptDetailDTO struct {
	TestAttemptSummaryDTO
	TestTitle string              `json:"test_title,omitempty"`
	Answers   []AnswerResponseDTO `json:"answers"`
}

type PracticeAnswerResultDTO struct {
	QuestionID   uint `json:"question_id"`
	IsCorrect    bool `json:"is_correct"`
	PointsEarned int  `json:"points_earned"`
}

type PracticeResultDTO struct {
	TestID          uint                      `json:"test_id"`
	Score           int                       `json:"score"`
	MaxScore        int                       `json:"max_score"`
	PercentageScore int                       `json:"percentage_score"`
	Passed          bool                      `json:"passed"`
	Results         []PracticeAnswerResultDTO `json:"results"`
}

type AttemptFeedbackDTO struct {
	AttemptID uint   `json:"attempt_id"`
	Feedback  string `json:"feedback"`
}
