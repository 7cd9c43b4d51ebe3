package repository

import (
	"context"
	"time"

	"github.com/lshigami/learnhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CertificateRepository interface {
	// InsertIfAbsent reports false when a certificate already exists for the
	// same (student, test) pair or certificate id.
	InsertIfAbsent(ctx context.Context, cert *model.Certificate) (bool, error)
	FindByID(ctx context.Context, id uint) (*model.Certificate, error)
	FindByCertificateID(ctx context.Context, certificateID string) (*model.Certificate, error)
	FindByStudentAndTest(ctx context.Context, studentID, testID uint) (*model.Certificate, error)
	ListByStudent(ctx context.Context, studentID uint, withDetails bool) ([]model.Certificate, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	TransitionStatus(ctx context.Context, id uint, from, to model.CertificateStatus) (bool, error)
	Revoke(ctx context.Context, id uint, reason string, at time.Time) (bool, error)
	IncrementDownloads(ctx context.Context, id uint) error
	CountByStudentAndTest(ctx context.Context, studentID, testID uint) (int64, error)
}

type certificateRepository struct {
	db *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) InsertIfAbsent(ctx context.Context, cert *model.Certificate) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(cert)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		cert.ID = 0
		return false, nil
	}
	return true, nil
}

func (r *certificateRepository) FindByID(ctx context.Context, id uint) (*model.Certificate, error) {
	var cert model.Certificate
	if err := r.db.WithContext(ctx).First(&cert, id).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepository) FindByCertificateID(ctx context.Context, certificateID string) (*model.Certificate, error) {
	var cert model.Certificate
	if err := r.db.WithContext(ctx).Where("certificate_id = ?", certificateID).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepository) FindByStudentAndTest(ctx context.Context, studentID, testID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.WithContext(ctx).Where("student_id = ? AND test_id = ?", studentID, testID).First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepository) ListByStudent(ctx context.Context, studentID uint, withDetails bool) ([]model.Certificate, error) {
	var certs []model.Certificate
	query := r.db.WithContext(ctx)
	if withDetails {
		query = query.Preload("Course").Preload("Test")
	}
	err := query.
		Where("student_id = ? AND status <> ?", studentID, model.CertificateRevoked).
		Order("issue_date DESC, id DESC").
		Find(&certs).Error
	return certs, err
}

func (r *certificateRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Certificate{}).Where("id = ?", id).Updates(fields).Error
}

func (r *certificateRepository) TransitionStatus(ctx context.Context, id uint, from, to model.CertificateStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *certificateRepository) Revoke(ctx context.Context, id uint, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ? AND status <> ?", id, model.CertificateRevoked).
		Updates(map[string]interface{}{
			"status":        model.CertificateRevoked,
			"revoked_at":    at,
			"revoke_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *certificateRepository) IncrementDownloads(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
}

func (r *certificateRepository) CountByStudentAndTest(ctx context.Context, studentID, testID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Certificate{}).
		Where("student_id = ? AND test_id = ?", studentID, testID).
		Count(&count).Error
	return count, err
}
