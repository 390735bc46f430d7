package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_Validate(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		category Category
		wantErr  error
	}{
		{
			name:     "valid expense category",
			category: Category{UserID: userID, Name: "Groceries", Type: EntryTypeExpense, Color: "#33FF57"},
		},
		{
			name:     "valid income category",
			category: Category{UserID: userID, Name: "Salary", Type: EntryTypeIncome, Color: "#33fff0"},
		},
		{
			name:     "blank name",
			category: Category{UserID: userID, Name: "  ", Type: EntryTypeExpense, Color: "#33FF57"},
			wantErr:  ErrCategoryNameRequired,
		},
		{
			name:     "name too long",
			category: Category{UserID: userID, Name: strings.Repeat("x", 101), Type: EntryTypeExpense, Color: "#33FF57"},
			wantErr:  ErrCategoryNameTooLong,
		},
		{
			name:     "multibyte name at the limit",
			category: Category{UserID: userID, Name: strings.Repeat("ğ", MaxCategoryNameLength), Type: EntryTypeExpense, Color: "#33FF57"},
		},
		{
			name:     "multibyte name over the limit",
			category: Category{UserID: userID, Name: strings.Repeat("ğ", MaxCategoryNameLength+1), Type: EntryTypeExpense, Color: "#33FF57"},
			wantErr:  ErrCategoryNameTooLong,
		},
		{
			name:     "unknown type",
			category: Category{UserID: userID, Name: "Gifts", Type: "transfer", Color: "#33FF57"},
			wantErr:  ErrInvalidEntryType,
		},
		{
			name:     "short color",
			category: Category{UserID: userID, Name: "Gifts", Type: EntryTypeIncome, Color: "#FFF"},
			wantErr:  ErrInvalidColor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.category.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCategory_ValidateRequiresUser(t *testing.T) {
	c := Category{Name: "Food", Type: EntryTypeExpense, Color: "#FF335A"}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user ID is required")
}

func TestCategory_BeforeCreateDefaultsColor(t *testing.T) {
	income := Category{UserID: uuid.New(), Name: "Bonus", Type: EntryTypeIncome}
	require.NoError(t, income.BeforeCreate(nil))
	assert.Equal(t, DefaultIncomeColor, income.Color)
	assert.NotEqual(t, uuid.Nil, income.ID)

	expense := Category{UserID: uuid.New(), Name: "Coffee", Type: EntryTypeExpense}
	require.NoError(t, expense.BeforeCreate(nil))
	assert.Equal(t, DefaultExpenseColor, expense.Color)
}

func TestDefaultCategories(t *testing.T) {
	userID := uuid.New()
	categories := DefaultCategories(userID)

	require.Len(t, categories, 14)

	counts := map[string]int{}
	for _, c := range categories {
		assert.Equal(t, userID, c.UserID)
		assert.NoError(t, c.Validate(), c.Name)
		counts[c.Type]++
	}
	assert.Equal(t, 5, counts[EntryTypeIncome])
	assert.Equal(t, 9, counts[EntryTypeExpense])
}

func TestIsValidEntryType(t *testing.T) {
	assert.True(t, IsValidEntryType(EntryTypeIncome))
	assert.True(t, IsValidEntryType(EntryTypeExpense))
	assert.False(t, IsValidEntryType("Income"))
	assert.False(t, IsValidEntryType(""))
}
