package services

import (
	"time"

	"fintrack/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	salaryDayOfMonth = 1
	billDayOfMonth   = 5
	incomeShare      = 0.15
)

type amountRange struct {
	min, max float64
}

// transactionGenerator produces plausible entries for the default category names.
type transactionGenerator struct {
	merchants map[string][]string
	ranges    map[string]amountRange
}

func newTransactionGenerator() *transactionGenerator {
	return &transactionGenerator{
		merchants: map[string][]string{
			"Groceries":     {"Migros", "CarrefourSA", "A101", "BIM", "Sok Market", "Whole Foods Market"},
			"Food":          {"Starbucks", "Burger King", "Simit Sarayi", "Domino's Pizza", "Local Bistro"},
			"Transport":     {"Shell", "Opet", "BP", "Istanbulkart", "Uber", "BiTaksi"},
			"Shopping":      {"Amazon", "Trendyol", "Hepsiburada", "IKEA", "Zara", "MediaMarkt"},
			"Entertainment": {"Netflix", "Spotify", "Cinemaximum", "Steam", "Disney+"},
			"Bills":         {"Electric Company", "Internet Provider", "Water Department", "Gas Company", "Mobile Operator"},
			"Health":        {"Pharmacy", "Dental Clinic", "Gym Membership", "Eye Care Center"},
			"Rent":          {"Monthly Rent"},
			"Salary":        {"ACME Corporation"},
			"Freelance":     {"Upwork", "Fiverr", "Direct Client"},
		},
		ranges: map[string]amountRange{
			"Groceries":         {15, 250},
			"Food":              {8, 120},
			"Transport":         {10, 80},
			"Shopping":          {25, 450},
			"Entertainment":     {10, 60},
			"Bills":             {50, 250},
			"Health":            {20, 300},
			"Rent":              {800, 1500},
			"Salary":            {2500, 4500},
			"Freelance":         {200, 1500},
			"Investment Income": {20, 400},
			"Gift":              {50, 300},
		},
	}
}

// Amount returns a random two-decimal amount in the category's usual range.
func (g *transactionGenerator) Amount(categoryName string) decimal.Decimal {
	r, ok := g.ranges[categoryName]
	if !ok {
		r = amountRange{10, 100}
	}
	return decimal.NewFromFloat(gofakeit.Float64Range(r.min, r.max)).Round(2)
}

func (g *transactionGenerator) Description(categoryName string) string {
	if merchants, ok := g.merchants[categoryName]; ok {
		return gofakeit.RandomString(merchants)
	}
	return categoryName + " - " + gofakeit.Company()
}

// Date picks a day in [start, end].
func (g *transactionGenerator) Date(start, end time.Time) models.Date {
	if !end.After(start) {
		return models.DateOf(start)
	}
	return models.DateOf(gofakeit.DateRange(start, end))
}

// Recurring emits one entry per month on the given day for each month the window covers.
func (g *transactionGenerator) Recurring(userID uuid.UUID, category models.Category, day int, start, end time.Time) []models.Transaction {
	transactions := make([]models.Transaction, 0)

	current := time.Date(start.Year(), start.Month(), day, 0, 0, 0, 0, time.UTC)
	if current.Before(start) {
		current = current.AddDate(0, 1, 0)
	}
	for !current.After(end) {
		transactions = append(transactions, models.Transaction{
			UserID:      userID,
			CategoryID:  category.ID,
			Type:        category.Type,
			Amount:      g.Amount(category.Name),
			Description: g.Description(category.Name),
			Date:        models.DateOf(current),
		})
		current = current.AddDate(0, 1, 0)
	}
	return transactions
}

// Random emits count entries, mostly expenses, spread over [start, end].
func (g *transactionGenerator) Random(userID uuid.UUID, income, expense []models.Category, count int, start, end time.Time) []models.Transaction {
	transactions := make([]models.Transaction, 0, count)
	for i := 0; i < count; i++ {
		pool := expense
		if len(pool) == 0 || (len(income) > 0 && gofakeit.Float64() < incomeShare) {
			pool = income
		}
		if len(pool) == 0 {
			break
		}
		category := pool[gofakeit.Number(0, len(pool)-1)]

		transactions = append(transactions, models.Transaction{
			UserID:      userID,
			CategoryID:  category.ID,
			Type:        category.Type,
			Amount:      g.Amount(category.Name),
			Description: g.Description(category.Name),
			Date:        g.Date(start, end),
		})
	}
	return transactions
}
