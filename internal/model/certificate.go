package model

import (
	"time"

	"gorm.io/datatypes"
)

type CertificateStatus string

const (
	CertificateActive  CertificateStatus = "active"
	CertificateExpired CertificateStatus = "expired"
	CertificateRevoked CertificateStatus = "revoked"
)

// Certificate proves a passed certificate test. One row per (student, test).
type Certificate struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	CertificateID string            `json:"certificate_id" gorm:"size:64;not null;uniqueIndex"`
	StudentID     uint              `json:"student_id" gorm:"not null;uniqueIndex:idx_certificate_student_test,priority:1"`
	Student       Student           `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	CourseID      uint              `json:"course_id" gorm:"not null;index"`
	Course        Course            `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	TestID        uint              `json:"test_id" gorm:"not null;uniqueIndex:idx_certificate_student_test,priority:2"`
	Test          Test              `json:"test,omitempty" gorm:"foreignKey:TestID"`
	TestAttemptID uint              `json:"test_attempt_id" gorm:"not null"`
	Title         string            `json:"title" gorm:"not null"`
	Score         int               `json:"score" gorm:"not null"`
	PassingScore  int               `json:"passing_score" gorm:"not null"`
	IssueDate     time.Time         `json:"issue_date" gorm:"not null;index"`
	ExpiryDate    *time.Time        `json:"expiry_date,omitempty"`
	Status        CertificateStatus `json:"status" gorm:"type:varchar(16);not null;default:'active';index"`
	RevokedAt     *time.Time        `json:"revoked_at,omitempty"`
	RevokeReason  string            `json:"revoke_reason,omitempty"`
	DownloadCount int               `json:"download_count" gorm:"not null;default:0"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:json"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// IsPastExpiry reports whether the certificate has an expiry date before now.
func (c *Certificate) IsPastExpiry(now time.Time) bool {
	return c.ExpiryDate != nil && now.After(*c.ExpiryDate)
}

// EffectiveStatus applies lazy expiry to an active certificate.
func (c *Certificate) EffectiveStatus(now time.Time) CertificateStatus {
	if c.Status == CertificateActive && c.IsPastExpiry(now) {
		return CertificateExpired
	}
	return c.Status
}
