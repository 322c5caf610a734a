package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/pkg/pagination"
	"github.com/studyhub/studyhub-server-go/pkg/types"
)

// Payment records a financial transaction. Rows are append-only; both
// foreign keys are nulled rather than cascaded so the history survives
// user and course deletion.
type Payment struct {
	types.BaseModel

	UserID    *uuid.UUID          `gorm:"type:uuid;column:user_id;index:idx_user_date,priority:1" json:"userId,omitempty"`
	CourseID  *uuid.UUID          `gorm:"type:uuid;column:course_id;index" json:"courseId,omitempty"`
	Date      time.Time           `gorm:"type:timestamp;not null;index:idx_user_date,priority:2" json:"date"`
	Amount    types.Money         `gorm:"type:numeric(10,2);not null" json:"amount"`
	Method    types.PaymentMethod `gorm:"type:varchar(20);not null;default:'stripe';column:payment_method" json:"paymentMethod"`
	SessionID *string             `gorm:"type:varchar(255);column:session_id" json:"sessionId,omitempty"`
	Link      *string             `gorm:"type:varchar(400)" json:"link,omitempty"`

	// Relations
	Course *course.Course `gorm:"foreignKey:CourseID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName overrides the default table name.
func (Payment) TableName() string { return "payments" }

// ListFilters defines payment query filters.
type ListFilters struct {
	UserID    *uuid.UUID
	CourseID  *uuid.UUID
	Method    string
	DateFrom  *time.Time
	DateTo    *time.Time
	SortOrder string
}

// CreateInput carries data for recording a new payment.
type CreateInput struct {
	UserID    *uuid.UUID
	CourseID  *uuid.UUID
	Amount    types.Money
	Method    types.PaymentMethod
	SessionID *string
	Link      *string
	Date      *time.Time
}

// List queries payments with filters and pagination.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Payment, int64, error) {
	query := db.Model(&Payment{})

	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}

	if filters.Method != "" {
		query = query.Where("payment_method = ?", filters.Method)
	}

	if filters.DateFrom != nil {
		query = query.Where("date >= ?", *filters.DateFrom)
	}

	if filters.DateTo != nil {
		query = query.Where("date <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "date DESC"
	if filters.SortOrder == "asc" {
		order = "date ASC"
	}

	var payments []Payment
	if err := query.Order(order).Offset(params.Skip).Limit(params.Limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// Create records a payment. Payments are never updated afterwards.
func Create(db *gorm.DB, input CreateInput) (Payment, error) {
	if !input.Amount.IsPositive() {
		return Payment{}, ErrInvalidAmount
	}

	method := input.Method
	if method == "" {
		method = types.PaymentMethodStripe
	}
	if !method.Valid() {
		return Payment{}, ErrInvalidMethod
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}

	p := Payment{
		UserID:    input.UserID,
		CourseID:  input.CourseID,
		Date:      date,
		Amount:    input.Amount,
		Method:    method,
		SessionID: input.SessionID,
		Link:      input.Link,
	}

	if err := db.Create(&p).Error; err != nil {
		return Payment{}, err
	}

	return p, nil
}
