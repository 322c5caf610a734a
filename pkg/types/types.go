package types

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserRole represents a user's capability level. Moderation rights are an
// explicit role on the account rather than a group membership lookup.
type UserRole string

const (
	RoleMember    UserRole = "member"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// CanModerate reports whether the role grants cross-ownership read/update rights.
func (r UserRole) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleMember, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// PaymentMethod represents how a payment was made.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodStripe   PaymentMethod = "stripe"
)

// Valid reports whether the payment method is one of the known values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodStripe:
		return true
	}
	return false
}

// BaseModel contains common fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// BeforeCreate assigns an ID when none was set. Key generation stays in the
// application so the same models work on engines without gen_random_uuid().
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Money wraps decimal.Decimal for monetary values.
type Money decimal.Decimal

// NewMoney creates Money from float64.
func NewMoney(value float64) Money {
	return Money(decimal.NewFromFloat(value))
}

// NewMoneyFromString creates Money from string.
func NewMoneyFromString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, err
	}
	return Money(d), nil
}

// Float64 returns the float64 representation.
func (m Money) Float64() float64 {
	return decimal.Decimal(m).InexactFloat64()
}

// MinorUnits returns the amount in minor currency units (kopecks/cents).
func (m Money) MinorUnits() int64 {
	return decimal.Decimal(m).Mul(decimal.NewFromInt(100)).IntPart()
}

// String returns the string representation.
func (m Money) String() string {
	return decimal.Decimal(m).String()
}

// IsPositive reports whether the value is strictly greater than zero.
func (m Money) IsPositive() bool {
	return decimal.Decimal(m).IsPositive()
}

// IsZero reports whether the value is zero.
func (m Money) IsZero() bool {
	return decimal.Decimal(m).IsZero()
}

// Value implements driver.Valuer for database serialization.
func (m Money) Value() (driver.Value, error) {
	return decimal.Decimal(m).Value()
}

// Scan implements sql.Scanner for database deserialization.
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return decimal.Decimal(m).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}
