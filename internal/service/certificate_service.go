package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CertificateService issues certificates for passed certificate tests and
// answers verification and lookup requests.
type CertificateService interface {
	// IssueIfEligible returns the certificate backing a passing attempt, or nil
	// when the attempt does not qualify or the pair was revoked. The bool
	// reports whether a new row was created.
	IssueIfEligible(ctx context.Context, attempt *model.TestAttempt, test *model.Test) (*model.Certificate, bool, error)
	Verify(ctx context.Context, certificateID string) (*dto.VerifyCertificateResponseDTO, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.CertificateDTO, error)
	Download(ctx context.Context, id uint, caller model.Identity) (*dto.CertificateDownloadDTO, error)
	Revoke(ctx context.Context, id uint, reason string) (*dto.CertificateDTO, error)
}

type certificateService struct {
	certRepo     repository.CertificateRepository
	courses      CourseCatalog
	students     StudentDirectory
	validityDays int
	now          func() time.Time
}

func NewCertificateService(
	certRepo repository.CertificateRepository,
	courses CourseCatalog,
	students StudentDirectory,
	cfg *config.Config,
) CertificateService {
	validity := 0
	if cfg != nil {
		validity = cfg.Assessment.CertificateValidityDays
	}
	return &certificateService{
		certRepo:     certRepo,
		courses:      courses,
		students:     students,
		validityDays: validity,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *certificateService) IssueIfEligible(ctx context.Context, attempt *model.TestAttempt, test *model.Test) (*model.Certificate, bool, error) {
	if !attempt.Passed || !test.IsCertificateTest || attempt.Status != model.AttemptCompleted {
		return nil, false, nil
	}
	now := s.now()

	existing, err := s.certRepo.FindByStudentAndTest(ctx, attempt.StudentID, test.ID)
	if err == nil {
		cert, err := s.refresh(ctx, existing, attempt, now)
		return cert, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("error looking up certificate: %w", err)
	}

	courseTitle, err := s.courses.CourseTitle(ctx, test.CourseID)
	if err != nil {
		log.Warn().Err(err).Uint("courseID", test.CourseID).Msg("IssueIfEligible: course title unavailable")
	}
	certID, err := GenerateCertificateID(now)
	if err != nil {
		return nil, false, err
	}

	cert := &model.Certificate{
		CertificateID: certID,
		StudentID:     attempt.StudentID,
		CourseID:      test.CourseID,
		TestID:        test.ID,
		TestAttemptID: attempt.ID,
		Title:         certificateTitle(courseTitle, test.Title),
		Score:         attempt.PercentageScore,
		PassingScore:  test.PassingScore,
		IssueDate:     now,
		ExpiryDate:    s.expiry(now),
		Status:        model.CertificateActive,
		Metadata: datatypes.JSONMap{
			"course_title":   courseTitle,
			"test_title":     test.Title,
			"attempt_number": attempt.AttemptNumber,
			"raw_score":      attempt.Score,
			"max_score":      attempt.TotalPossiblePoints,
		},
	}
	inserted, err := s.certRepo.InsertIfAbsent(ctx, cert)
	if err != nil {
		return nil, false, fmt.Errorf("error creating certificate: %w", err)
	}
	if inserted {
		log.Info().Str("certificateID", cert.CertificateID).Uint("studentID", cert.StudentID).Uint("testID", cert.TestID).
			Msg("Certificate issued")
		return cert, true, nil
	}

	// A concurrent submit created the row first.
	existing, err = s.certRepo.FindByStudentAndTest(ctx, attempt.StudentID, test.ID)
	if err != nil {
		return nil, false, fmt.Errorf("error reloading certificate after conflict: %w", err)
	}
	cert, err = s.refresh(ctx, existing, attempt, now)
	return cert, false, err
}

// refresh reconciles an existing certificate with a new passing attempt.
// Revoked certificates stay revoked.
func (s *certificateService) refresh(ctx context.Context, cert *model.Certificate, attempt *model.TestAttempt, now time.Time) (*model.Certificate, error) {
	if cert.Status == model.CertificateRevoked {
		log.Info().Str("certificateID", cert.CertificateID).Msg("Certificate is revoked, not re-issuing")
		return nil, nil
	}

	fields := map[string]interface{}{}
	if cert.Score != attempt.PercentageScore {
		fields["score"] = attempt.PercentageScore
		fields["test_attempt_id"] = attempt.ID
	}
	if cert.EffectiveStatus(now) != model.CertificateActive {
		fields["status"] = model.CertificateActive
	}
	if len(fields) == 0 {
		return cert, nil
	}
	expiry := s.expiry(now)
	fields["issue_date"] = now
	fields["expiry_date"] = expiry

	if err := s.certRepo.Update(ctx, cert.ID, fields); err != nil {
		return nil, fmt.Errorf("error refreshing certificate: %w", err)
	}
	cert.Score = attempt.PercentageScore
	cert.TestAttemptID = attempt.ID
	cert.Status = model.CertificateActive
	cert.IssueDate = now
	cert.ExpiryDate = expiry
	log.Info().Str("certificateID", cert.CertificateID).Int("score", cert.Score).Msg("Certificate refreshed")
	return cert, nil
}

func (s *certificateService) Verify(ctx context.Context, certificateID string) (*dto.VerifyCertificateResponseDTO, error) {
	cert, err := s.certRepo.FindByCertificateID(ctx, certificateID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &dto.VerifyCertificateResponseDTO{Valid: false, Message: "certificate not found"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error looking up certificate: %w", err)
	}

	now := s.now()
	switch cert.EffectiveStatus(now) {
	case model.CertificateRevoked:
		return &dto.VerifyCertificateResponseDTO{
			Valid:   false,
			Status:  string(model.CertificateRevoked),
			Message: "certificate has been revoked",
		}, nil
	case model.CertificateExpired:
		s.persistExpiry(ctx, cert)
		return &dto.VerifyCertificateResponseDTO{
			Valid:   false,
			Status:  string(model.CertificateExpired),
			Message: "certificate has expired",
		}, nil
	}

	public := s.publicView(ctx, cert)
	return &dto.VerifyCertificateResponseDTO{
		Valid:       true,
		Status:      string(model.CertificateActive),
		Certificate: &public,
	}, nil
}

func (s *certificateService) ListForStudent(ctx context.Context, studentID uint) ([]dto.CertificateDTO, error) {
	certs, err := s.certRepo.ListByStudent(ctx, studentID, true)
	if err != nil {
		log.Error().Err(err).Uint("studentID", studentID).Msg("Enriched certificate listing failed, falling back to plain records")
		certs, err = s.certRepo.ListByStudent(ctx, studentID, false)
		if err != nil {
			return nil, fmt.Errorf("error listing certificates: %w", err)
		}
	}

	now := s.now()
	dtos := make([]dto.CertificateDTO, 0, len(certs))
	for i := range certs {
		dtos = append(dtos, toCertificateDTO(&certs[i], now))
	}
	return dtos, nil
}

func (s *certificateService) Download(ctx context.Context, id uint, caller model.Identity) (*dto.CertificateDownloadDTO, error) {
	cert, err := s.certRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("certificate_not_found", fmt.Sprintf("certificate %d not found", id))
	}
	if err != nil {
		return nil, apperror.Internal("error fetching certificate", err)
	}
	if !caller.CanAccess(cert.StudentID) {
		return nil, apperror.Forbidden("not_certificate_owner", "certificate belongs to another student")
	}
	if cert.Status == model.CertificateRevoked {
		return nil, apperror.Conflict("certificate_revoked", "a revoked certificate cannot be downloaded")
	}

	if err := s.certRepo.IncrementDownloads(ctx, cert.ID); err != nil {
		log.Error().Err(err).Uint("certificateID", cert.ID).Msg("Failed to bump download counter")
	} else {
		cert.DownloadCount++
	}

	status := cert.EffectiveStatus(s.now())
	if status == model.CertificateExpired {
		s.persistExpiry(ctx, cert)
	}
	return &dto.CertificateDownloadDTO{
		PublicCertificateDTO: s.publicView(ctx, cert),
		Status:               string(status),
		PassingScore:         cert.PassingScore,
		DownloadCount:        cert.DownloadCount,
	}, nil
}

func (s *certificateService) Revoke(ctx context.Context, id uint, reason string) (*dto.CertificateDTO, error) {
	cert, err := s.certRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("certificate_not_found", fmt.Sprintf("certificate %d not found", id))
	}
	if err != nil {
		return nil, apperror.Internal("error fetching certificate", err)
	}

	now := s.now()
	ok, err := s.certRepo.Revoke(ctx, id, reason, now)
	if err != nil {
		return nil, apperror.Internal("error revoking certificate", err)
	}
	if !ok {
		return nil, apperror.Conflict("certificate_already_revoked", "certificate is already revoked")
	}
	log.Info().Str("certificateID", cert.CertificateID).Str("reason", reason).Msg("Certificate revoked")

	cert.Status = model.CertificateRevoked
	cert.RevokedAt = &now
	cert.RevokeReason = reason
	resp := toCertificateDTO(cert, now)
	return &resp, nil
}

// persistExpiry writes the lazily observed expired status. Failures are logged.
func (s *certificateService) persistExpiry(ctx context.Context, cert *model.Certificate) {
	if cert.Status != model.CertificateActive {
		return
	}
	if _, err := s.certRepo.TransitionStatus(ctx, cert.ID, model.CertificateActive, model.CertificateExpired); err != nil {
		log.Error().Err(err).Str("certificateID", cert.CertificateID).Msg("Failed to persist expired status")
		return
	}
	cert.Status = model.CertificateExpired
}

// publicView is the projection shown to third parties. Lookup failures fall
// back to the titles captured at issue time.
func (s *certificateService) publicView(ctx context.Context, cert *model.Certificate) dto.PublicCertificateDTO {
	studentName, err := s.students.StudentName(ctx, cert.StudentID)
	if err != nil {
		log.Warn().Err(err).Str("certificateID", cert.CertificateID).Msg("Student name unavailable for certificate")
	}
	courseName, err := s.courses.CourseTitle(ctx, cert.CourseID)
	if err != nil || courseName == "" {
		courseName = metadataString(cert.Metadata, "course_title")
	}
	return dto.PublicCertificateDTO{
		CertificateID: cert.CertificateID,
		Title:         cert.Title,
		StudentName:   studentName,
		CourseName:    courseName,
		TestName:      metadataString(cert.Metadata, "test_title"),
		IssueDate:     cert.IssueDate,
		ExpiryDate:    cert.ExpiryDate,
		Score:         cert.Score,
	}
}

func (s *certificateService) expiry(issued time.Time) *time.Time {
	if s.validityDays <= 0 {
		return nil
	}
	exp := issued.AddDate(0, 0, s.validityDays)
	return &exp
}

func toCertificateDTO(cert *model.Certificate, now time.Time) dto.CertificateDTO {
	courseName := cert.Course.Title
	if courseName == "" {
		courseName = metadataString(cert.Metadata, "course_title")
	}
	testName := cert.Test.Title
	if testName == "" {
		testName = metadataString(cert.Metadata, "test_title")
	}
	return dto.CertificateDTO{
		ID:            cert.ID,
		CertificateID: cert.CertificateID,
		Title:         cert.Title,
		CourseID:      cert.CourseID,
		CourseName:    courseName,
		TestID:        cert.TestID,
		TestName:      testName,
		Score:         cert.Score,
		PassingScore:  cert.PassingScore,
		IssueDate:     cert.IssueDate,
		ExpiryDate:    cert.ExpiryDate,
		Status:        string(cert.EffectiveStatus(now)),
		DownloadCount: cert.DownloadCount,
	}
}

func certificateTitle(courseTitle, testTitle string) string {
	if courseTitle == "" {
		return testTitle
	}
	return courseTitle + " — " + testTitle
}

func metadataString(meta datatypes.JSONMap, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
