package dto

import "time"

// PublicCertificateDTO is the only certificate shape shown to third parties.
// It carries no internal ids.
type PublicCertificateDTO struct {
	CertificateID string     `json:"certificate_id"`
	Title         string     `json:"title"`
	StudentName   string     `json:"student_name"`
	CourseName    string     `json:"course_name"`
	TestName      string     `json:"test_name"`
	IssueDate     time.Time  `json:"issue_date"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	Score         int        `json:"score"`
}

type VerifyCertificateResponseDTO struct {
	Valid       bool                  `json:"valid"`
	Status      string                `json:"status,omitempty"`
	Message     string                `json:"message,omitempty"`
	Certificate *PublicCertificateDTO `json:"certificate,omitempty"`
}

// CertificateDTO is the owner's view of a certificate.
type CertificateDTO struct {
	ID            uint       `json:"id"`
	CertificateID string     `json:"certificate_id"`
	Title         string     `json:"title"`
	CourseID      uint       `json:"course_id"`
	CourseName    string     `json:"course_name,omitempty"`
	TestID        uint       `json:"test_id"`
	TestName      string     `json:"test_name,omitempty"`
	Score         int        `json:"score"`
	PassingScore  int        `json:"passing_score"`
	IssueDate     time.Time  `json:"issue_date"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	Status        string     `json:"status"`
	DownloadCount int        `json:"download_count"`
}

// CertificateDownloadDTO carries everything needed to render a certificate.
type CertificateDownloadDTO struct {
	PublicCertificateDTO
	Status        string `json:"status"`
	PassingScore  int    `json:"passing_score"`
	DownloadCount int    `json:"download_count"`
}
