package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry types shared by categories and transactions.
const (
	EntryTypeIncome  = "income"
	EntryTypeExpense = "expense"

	DefaultIncomeColor  = "#10B981"
	DefaultExpenseColor = "#EF4444"

	MaxCategoryNameLength = 100
)

var (
	colorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

	ErrInvalidEntryType     = errors.New("type must be income or expense")
	ErrInvalidColor         = errors.New("color must be a #RRGGBB hex value")
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrCategoryNameTooLong  = errors.New("category name is too long")
)

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Type      string    `gorm:"type:varchar(10);not null;index" json:"type"`
	Color     string    `gorm:"type:varchar(7);not null" json:"color"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Color == "" {
		c.Color = DefaultColorFor(c.Type)
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	return c.Validate()
}

func (c *Category) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = time.Now()
	return c.Validate()
}

func (c *Category) Validate() error {
	if c.UserID == uuid.Nil {
		return errors.New("user ID is required")
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrCategoryNameRequired
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}
	if !IsValidEntryType(c.Type) {
		return ErrInvalidEntryType
	}
	if !colorRegex.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (c *Category) IsIncome() bool {
	return c.Type == EntryTypeIncome
}

func (c *Category) TableName() string {
	return "categories"
}

func IsValidEntryType(entryType string) bool {
	switch entryType {
	case EntryTypeIncome, EntryTypeExpense:
		return true
	default:
		return false
	}
}

func DefaultColorFor(entryType string) string {
	if entryType == EntryTypeIncome {
		return DefaultIncomeColor
	}
	return DefaultExpenseColor
}

// DefaultCategories is the starter set given to every new user.
func DefaultCategories(userID uuid.UUID) []Category {
	seed := []struct {
		name, entryType, color string
	}{
		{"Salary", EntryTypeIncome, "#33FFF0"},
		{"Freelance", EntryTypeIncome, "#FFF033"},
		{"Investment Income", EntryTypeIncome, "#33FF57"},
		{"Gift", EntryTypeIncome, "#8833FF"},
		{"Other Income", EntryTypeIncome, "#FF33E9"},
		{"Rent", EntryTypeExpense, "#FF5733"},
		{"Groceries", EntryTypeExpense, "#33FF57"},
		{"Bills", EntryTypeExpense, "#3357FF"},
		{"Entertainment", EntryTypeExpense, "#F033FF"},
		{"Health", EntryTypeExpense, "#33FFEC"},
		{"Transport", EntryTypeExpense, "#FFB533"},
		{"Food", EntryTypeExpense, "#FF335A"},
		{"Shopping", EntryTypeExpense, "#8CFF33"},
		{"Other Expense", EntryTypeExpense, "#33C1FF"},
	}

	categories := make([]Category, 0, len(seed))
	for _, s := range seed {
		categories = append(categories, Category{
			UserID: userID,
			Name:   s.name,
			Type:   s.entryType,
			Color:  s.color,
		})
	}
	return categories
}
