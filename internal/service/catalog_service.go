package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/repository"
	"gorm.io/gorm"
)

// CourseCatalog resolves course display data.
type CourseCatalog interface {
	CourseTitle(ctx context.Context, courseID uint) (string, error)
}

// StudentDirectory answers identity and eligibility questions about students.
type StudentDirectory interface {
	StudentName(ctx context.Context, studentID uint) (string, error)
	IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error)
}

type courseCatalog struct {
	courseRepo repository.CourseRepository
	cache      Cache
	ttl        time.Duration
}

func NewCourseCatalog(courseRepo repository.CourseRepository, cache Cache, cfg *config.Config) CourseCatalog {
	return &courseCatalog{courseRepo: courseRepo, cache: cache, ttl: cacheTTL(cfg)}
}

func (c *courseCatalog) CourseTitle(ctx context.Context, courseID uint) (string, error) {
	return cacheOrLoad(ctx, c.cache, fmt.Sprintf("course:%d:title", courseID), c.ttl, func() (string, error) {
		course, err := c.courseRepo.FindByID(ctx, courseID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.NotFound("course_not_found", fmt.Sprintf("course %d not found", courseID))
		}
		if err != nil {
			return "", fmt.Errorf("error fetching course %d: %w", courseID, err)
		}
		return course.Title, nil
	})
}

type studentDirectory struct {
	studentRepo repository.StudentRepository
	cache       Cache
	ttl         time.Duration
}

func NewStudentDirectory(studentRepo repository.StudentRepository, cache Cache, cfg *config.Config) StudentDirectory {
	return &studentDirectory{studentRepo: studentRepo, cache: cache, ttl: cacheTTL(cfg)}
}

func (d *studentDirectory) StudentName(ctx context.Context, studentID uint) (string, error) {
	return cacheOrLoad(ctx, d.cache, fmt.Sprintf("student:%d:name", studentID), d.ttl, func() (string, error) {
		student, err := d.studentRepo.FindByID(ctx, studentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.NotFound("student_not_found", fmt.Sprintf("student %d not found", studentID))
		}
		if err != nil {
			return "", fmt.Errorf("error fetching student %d: %w", studentID, err)
		}
		return student.Name, nil
	})
}

// IsEnrolled is never cached; enrollments change under admin action.
func (d *studentDirectory) IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error) {
	enrolled, err := d.studentRepo.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return false, fmt.Errorf("error checking enrollment of student %d in course %d: %w", studentID, courseID, err)
	}
	return enrolled, nil
}

func cacheTTL(cfg *config.Config) time.Duration {
	if cfg == nil || cfg.Redis.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(cfg.Redis.CacheTTLSeconds) * time.Second
}
