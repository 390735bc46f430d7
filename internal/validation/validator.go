package validation

import (
	"reflect"
	"strings"
	"sync"

	"fintrack/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("entry_type", validateEntryType)
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("money_amount", validateMoneyAmount)
	_ = v.RegisterValidation("currency_code", validateCurrencyCode)

	// report fields by their wire names: json for bodies, query for query strings
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})

	return &Validator{validate: v}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// validateEntryType accepts "income" or "expense"
func validateEntryType(fl validator.FieldLevel) bool {
	return models.IsValidEntryType(fl.Field().String())
}

// validateHexColor accepts #RRGGBB
func validateHexColor(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) != 7 || value[0] != '#' {
		return false
	}
	for _, r := range value[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// validateMoneyAmount accepts a positive decimal string with at most two fraction digits
func validateMoneyAmount(fl validator.FieldLevel) bool {
	var amount decimal.Decimal

	switch fl.Field().Kind() {
	case reflect.String:
		parsed, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		if err != nil {
			return false
		}
		amount = parsed
	case reflect.Float32, reflect.Float64:
		amount = decimal.NewFromFloat(fl.Field().Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		amount = decimal.NewFromInt(fl.Field().Int())
	default:
		return false
	}

	return models.ValidateAmount(amount) == nil
}

// validateCurrencyCode accepts a three-letter upper-case ISO 4217 code
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return models.IsValidCurrency(strings.ToUpper(fl.Field().String()))
}
