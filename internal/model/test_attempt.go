package model

import (
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptTimedOut   AttemptStatus = "timed_out"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// IsTerminal reports whether no further transition is allowed.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptCompleted || s == AttemptTimedOut || s == AttemptAbandoned
}

// TestAttempt is one student's run through a test. At most one row per
// (test, student) may be in progress, and attempt numbers are unique per pair.
type TestAttempt struct {
	ID                  uint          `gorm:"primarykey" json:"id"`
	TestID              uint          `json:"test_id" gorm:"not null;index;uniqueIndex:idx_attempt_number,priority:1;uniqueIndex:idx_attempt_open,priority:1,where:status = 'in_progress'"`
	Test                Test          `json:"test,omitempty" gorm:"foreignKey:TestID"`
	StudentID           uint          `json:"student_id" gorm:"not null;index;uniqueIndex:idx_attempt_number,priority:2;uniqueIndex:idx_attempt_open,priority:2,where:status = 'in_progress'"`
	CourseID            uint          `json:"course_id" gorm:"not null;index"`
	AttemptNumber       int           `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_number,priority:3"`
	StartTime           time.Time     `json:"start_time" gorm:"not null"`
	EndTime             *time.Time    `json:"end_time,omitempty"`
	Score               int           `json:"score" gorm:"not null;default:0"`
	TotalPossiblePoints int           `json:"total_possible_points" gorm:"not null;default:0"`
	PercentageScore     int           `json:"percentage_score" gorm:"not null;default:0"`
	Passed              bool          `json:"passed" gorm:"not null;default:false"`
	Status              AttemptStatus `json:"status" gorm:"type:varchar(16);not null;default:'in_progress';index"`
	CertificateIssued   bool          `json:"certificate_issued" gorm:"not null;default:false"`
	CertificateID       *string       `json:"certificate_id,omitempty" gorm:"size:64"`
	Answers             []Answer      `json:"answers,omitempty" gorm:"foreignKey:TestAttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Deadline returns when the attempt runs out of time, or nil for untimed tests.
func (a *TestAttempt) Deadline(duration time.Duration) *time.Time {
	if duration <= 0 {
		return nil
	}
	d := a.StartTime.Add(duration)
	return &d
}

// IsOverdue reports whether an in-progress attempt is past deadline plus grace.
func (a *TestAttempt) IsOverdue(duration, grace time.Duration, now time.Time) bool {
	if a.Status != AttemptInProgress || duration <= 0 {
		return false
	}
	return now.After(a.StartTime.Add(duration).Add(grace))
}
