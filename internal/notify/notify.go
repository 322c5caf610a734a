// Package notify delivers course-update emails to subscribers. Dispatch
// is fire-and-forget: callers run it in a goroutine and the outcome is
// only logged and counted, never surfaced to the HTTP caller.
package notify

import (
	"context"
	"errors"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/pkg/metrics"
)

// Mailer sends a single course-update email.
type Mailer interface {
	SendCourseUpdate(to, courseTitle string) error
}

// Outcome classifies a dispatch run.
type Outcome string

const (
	OutcomeSent          Outcome = "sent"
	OutcomeNoRecipients  Outcome = "no_recipients"
	OutcomeCourseMissing Outcome = "course_missing"
	OutcomeFailed        Outcome = "failed"
)

// Result reports what a dispatch run did.
type Result struct {
	Outcome Outcome
	Sent    int
}

// Dispatcher resolves subscribers and sends update notifications.
type Dispatcher struct {
	db     *gorm.DB
	mailer Mailer
	logger *slog.Logger
}

// NewDispatcher constructs a notification dispatcher.
func NewDispatcher(db *gorm.DB, mailer Mailer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		db:     db,
		mailer: mailer,
		logger: logger,
	}
}

// CourseUpdated notifies every subscriber of the course that its
// materials changed. Safe to call from a goroutine.
func (d *Dispatcher) CourseUpdated(ctx context.Context, courseID uuid.UUID) {
	result := d.Dispatch(ctx, courseID)
	metrics.RecordNotification(string(result.Outcome))

	switch result.Outcome {
	case OutcomeSent:
		d.logger.Info("course update notifications sent",
			"courseId", courseID, "recipients", result.Sent)
	case OutcomeCourseMissing:
		d.logger.Warn("course update notification skipped: course missing",
			"courseId", courseID)
	case OutcomeNoRecipients:
		d.logger.Debug("course update notification skipped: no recipients",
			"courseId", courseID)
	case OutcomeFailed:
		d.logger.Error("course update notification failed",
			"courseId", courseID, "delivered", result.Sent)
	}
}

// Dispatch runs one notification pass and returns the typed outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, courseID uuid.UUID) Result {
	crs, err := course.Get(d.db.WithContext(ctx), courseID)
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			return Result{Outcome: OutcomeCourseMissing}
		}
		d.logger.Error("failed to load course for notification", "courseId", courseID, "error", err)
		return Result{Outcome: OutcomeFailed}
	}

	var emails []string
	err = d.db.WithContext(ctx).
		Table("course_subscriptions").
		Joins("JOIN users ON users.id = course_subscriptions.user_id").
		Where("course_subscriptions.course_id = ?", courseID).
		Where("users.email IS NOT NULL AND users.email <> ''").
		Pluck("users.email", &emails).Error
	if err != nil {
		d.logger.Error("failed to load subscriber emails", "courseId", courseID, "error", err)
		return Result{Outcome: OutcomeFailed}
	}

	if len(emails) == 0 {
		return Result{Outcome: OutcomeNoRecipients}
	}

	sent := 0
	for _, addr := range emails {
		if err := d.mailer.SendCourseUpdate(addr, crs.Title); err != nil {
			d.logger.Error("failed to send course update email",
				"courseId", courseID, "email", addr, "error", err)
			continue
		}
		sent++
	}

	if sent == 0 {
		return Result{Outcome: OutcomeFailed}
	}

	return Result{Outcome: OutcomeSent, Sent: sent}
}
