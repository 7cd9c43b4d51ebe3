package service

import (
	"testing"
	"time"

	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/repository"
	"github.com/lshigami/learnhub/internal/testutil"
	"gorm.io/gorm"
)

// harness wires the services against a fresh in-memory database with one
// course, one enrolled student and one test.
type harness struct {
	db  *gorm.DB
	cfg *config.Config

	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
	certRepo    repository.CertificateRepository

	attempts     *attemptService
	submissions  *testSubmissionService
	certificates *certificateService
	practice     PracticeService
	admin        AdminTestService
	catalog      CourseCatalog
	directory    StudentDirectory

	course  *model.Course
	student *model.Student
	test    *model.Test
	now     time.Time
}

func newHarness(t *testing.T, opts testutil.TestOptions) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{}
	cfg.Assessment.AttemptGraceSeconds = 30
	cfg.Assessment.CertificateValidityDays = 365

	h := &harness{db: db, cfg: cfg}
	h.testRepo = repository.NewTestRepository(db)
	h.attemptRepo = repository.NewTestAttemptRepository(db)
	h.certRepo = repository.NewCertificateRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	cache := NewCache(nil)
	h.catalog = NewCourseCatalog(courseRepo, cache, cfg)
	h.directory = NewStudentDirectory(studentRepo, cache, cfg)

	h.certificates = NewCertificateService(h.certRepo, h.catalog, h.directory, cfg).(*certificateService)
	h.attempts = NewAttemptService(h.testRepo, h.attemptRepo, h.directory, cfg).(*attemptService)
	h.submissions = NewTestSubmissionService(h.testRepo, h.attemptRepo, answerRepo, h.certificates, db, cfg).(*testSubmissionService)
	h.practice = NewPracticeService(h.testRepo)
	h.admin = NewAdminTestService(h.testRepo, repository.NewQuestionRepository(db), h.attemptRepo, courseRepo, studentRepo, db)

	h.course = testutil.SeedCourse(t, db, "Go Basics")
	h.student = testutil.SeedStudent(t, db, "Ada Lovelace")
	testutil.Enroll(t, db, h.student.ID, h.course.ID)
	h.test = testutil.SeedTest(t, db, h.course.ID, opts)

	h.setNow(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	return h
}

// setNow pins the clock of every time-dependent service.
func (h *harness) setNow(now time.Time) {
	h.now = now
	clock := func() time.Time { return h.now }
	h.attempts.now = clock
	h.submissions.now = clock
	h.certificates.now = clock
}

func (h *harness) advance(d time.Duration) {
	h.setNow(h.now.Add(d))
}

// enrolledStudent seeds another student enrolled in the harness course.
func (h *harness) enrolledStudent(t *testing.T, name string) *model.Student {
	t.Helper()
	student := testutil.SeedStudent(t, h.db, name)
	testutil.Enroll(t, h.db, student.ID, h.course.ID)
	return student
}
