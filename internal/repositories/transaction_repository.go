package repositories

import (
	"errors"
	"fmt"

	"fintrack/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

// monthExpr buckets the stored YYYY-MM-DD text by month on SQLite and PostgreSQL alike.
const monthExpr = "substr(transactions.date, 1, 7)"

// transactionRepository implements TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{
		db: db,
	}
}

// Create creates a new transaction
func (r *transactionRepository) Create(transaction *models.Transaction) error {
	if transaction == nil {
		return errors.New("transaction cannot be nil")
	}

	if err := r.db.Omit(clause.Associations).Create(transaction).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// CreateBatch creates multiple transactions in a single database transaction
func (r *transactionRepository) CreateBatch(transactions []models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).CreateInBatches(&transactions, 100).Error; err != nil {
			return fmt.Errorf("failed to create batch transactions: %w", err)
		}
		return nil
	})
}

// GetByIDForUser loads the transaction with its category; another user's
// transaction is reported as missing.
func (r *transactionRepository) GetByIDForUser(id, userID uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

// GetWithFilters returns one page, newest date first, and the unpaged total.
func (r *transactionRepository) GetWithFilters(userID uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	filters.Normalize()

	transactions := make([]models.Transaction, 0)
	var total int64

	query := applyTransactionFilters(r.db.Model(&models.Transaction{}), userID, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	if err := query.Preload("Category").
		Order("transactions.date DESC, transactions.created_at DESC").
		Offset(filters.Offset).
		Limit(filters.Limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get transactions: %w", err)
	}

	return transactions, total, nil
}

// Update writes every column except created_at, which is create-only.
func (r *transactionRepository) Update(transaction *models.Transaction) error {
	if transaction == nil {
		return errors.New("transaction cannot be nil")
	}

	if err := r.db.Omit(clause.Associations).Save(transaction).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) Delete(id, userID uuid.UUID) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Transaction{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *transactionRepository) GetBalance(userID uuid.UUID, filters models.TransactionFilters) (*models.Balance, error) {
	var row struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	if err := applyTransactionFilters(r.db.Model(&models.Transaction{}), userID, filters).
		Select(sumByTypeColumns(), models.EntryTypeIncome, models.EntryTypeExpense).
		Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to calculate balance: %w", err)
	}

	income := row.Income.Round(2)
	expense := row.Expense.Round(2)

	return &models.Balance{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}, nil
}

func (r *transactionRepository) GetMonthlyStats(userID uuid.UUID, filters models.TransactionFilters) ([]models.MonthlyStat, error) {
	var rows []struct {
		Month   string
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	if err := applyTransactionFilters(r.db.Model(&models.Transaction{}), userID, filters).
		Select(monthExpr+" AS month, "+sumByTypeColumns(), models.EntryTypeIncome, models.EntryTypeExpense).
		Group(monthExpr).
		Order("month ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to calculate monthly stats: %w", err)
	}

	stats := make([]models.MonthlyStat, 0, len(rows))
	for _, row := range rows {
		income := row.Income.Round(2)
		expense := row.Expense.Round(2)
		stats = append(stats, models.MonthlyStat{
			Month:   row.Month,
			Income:  income,
			Expense: expense,
			Net:     income.Sub(expense),
		})
	}
	return stats, nil
}

// GetCategoryStats sums per category, largest first. Percentages are left to the caller.
func (r *transactionRepository) GetCategoryStats(userID uuid.UUID, filters models.TransactionFilters) ([]models.CategoryStat, error) {
	stats := make([]models.CategoryStat, 0)

	if err := applyTransactionFilters(r.db.Model(&models.Transaction{}), userID, filters).
		Select("categories.id AS category_id, categories.name AS name, categories.color AS color, " +
			"COALESCE(SUM(transactions.amount), 0) AS amount, COUNT(transactions.id) AS transaction_count").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Group("categories.id, categories.name, categories.color").
		Order("amount DESC, categories.name ASC").
		Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to calculate category stats: %w", err)
	}

	for i := range stats {
		stats[i].Amount = stats[i].Amount.Round(2)
	}
	return stats, nil
}

func sumByTypeColumns() string {
	return "COALESCE(SUM(CASE WHEN transactions.type = ? THEN transactions.amount ELSE 0 END), 0) AS income, " +
		"COALESCE(SUM(CASE WHEN transactions.type = ? THEN transactions.amount ELSE 0 END), 0) AS expense"
}

// applyTransactionFilters qualifies every column so the query can join categories.
func applyTransactionFilters(query *gorm.DB, userID uuid.UUID, filters models.TransactionFilters) *gorm.DB {
	query = query.Where("transactions.user_id = ?", userID)

	if filters.StartDate != nil {
		query = query.Where("transactions.date >= ?", filters.StartDate.String())
	}
	if filters.EndDate != nil {
		query = query.Where("transactions.date <= ?", filters.EndDate.String())
	}
	if filters.CategoryID != uuid.Nil {
		query = query.Where("transactions.category_id = ?", filters.CategoryID)
	}
	if filters.Type != "" {
		query = query.Where("transactions.type = ?", filters.Type)
	}

	return query
}
