package coursesub

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/internal/features/user"
	"github.com/studyhub/studyhub-server-go/pkg/types"
)

// CourseSubscription links a user to a course they follow. At most one
// row per (user, course) pair, enforced by the database.
type CourseSubscription struct {
	types.BaseModel

	UserID   uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_user_course" json:"userId"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;column:course_id;uniqueIndex:idx_user_course" json:"courseId"`

	// Relations
	User   *user.User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course *course.Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the default table name.
func (CourseSubscription) TableName() string { return "course_subscriptions" }

// Toggle flips the subscription state for a user and course. It reports
// true when the call ended with a subscription added, false when it
// ended with one removed.
//
// The whole toggle runs in one transaction. A concurrent add that slips
// between the delete and the insert surfaces as a unique violation; the
// insert runs inside a savepoint so the violation does not abort the
// outer transaction on postgres, and the winning row is then deleted so
// the involution still holds.
func Toggle(db *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	if _, err := course.Get(db, courseID); err != nil {
		return false, err
	}

	added := false
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND course_id = ?", userID, courseID).
			Delete(&CourseSubscription{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			added = false
			return nil
		}

		insertErr := tx.Transaction(func(inner *gorm.DB) error {
			sub := CourseSubscription{UserID: userID, CourseID: courseID}
			return inner.Create(&sub).Error
		})
		if insertErr != nil {
			if isUniqueViolation(insertErr) {
				// A concurrent toggle won the add; undo it.
				res := tx.Where("user_id = ? AND course_id = ?", userID, courseID).
					Delete(&CourseSubscription{})
				if res.Error != nil {
					return res.Error
				}
				added = false
				return nil
			}
			return insertErr
		}

		added = true
		return nil
	})

	return added, err
}

// IsSubscribed reports whether the user currently follows the course.
func IsSubscribed(db *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&CourseSubscription{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
