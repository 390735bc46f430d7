package models

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const MaxDescriptionLength = 255

// maxAmount is the largest value a decimal(15,2) column holds.
var maxAmount = decimal.RequireFromString("9999999999999.99")

var (
	ErrInvalidAmount        = errors.New("transaction amount must be positive")
	ErrAmountPrecision      = errors.New("transaction amount supports at most two decimal places")
	ErrAmountTooLarge       = errors.New("transaction amount exceeds the supported range")
	ErrDateRequired         = errors.New("transaction date is required")
	ErrDescriptionTooLong   = errors.New("transaction description is too long")
	ErrCategoryTypeMismatch = errors.New("transaction type does not match category type")
	ErrCategoryRequired     = errors.New("category ID is required")
)

// Transaction is a single dated income or expense entry.
type Transaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"userId"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"categoryId"`
	Type        string          `gorm:"type:varchar(10);not null;index" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	Date        Date            `gorm:"type:varchar(10);not null;index" json:"date"`
	CreatedAt   time.Time       `gorm:"not null;index;<-:create" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updatedAt"`

	User     User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = time.Now()
	return t.Validate()
}

func (t *Transaction) Validate() error {
	if t.UserID == uuid.Nil {
		return errors.New("user ID is required")
	}
	if t.CategoryID == uuid.Nil {
		return ErrCategoryRequired
	}
	if !IsValidEntryType(t.Type) {
		return ErrInvalidEntryType
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrDateRequired
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// MatchesCategory reports whether the entry type agrees with the category.
func (t *Transaction) MatchesCategory(category *Category) bool {
	return category != nil && t.Type == category.Type
}

// SignedAmount is positive for income and negative for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == EntryTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

func (t *Transaction) TableName() string {
	return "transactions"
}

func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrAmountPrecision
	}
	if amount.GreaterThan(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}
