package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/models"
)

// lenderService handles lender wallets.
type lenderService struct {
	db *gorm.DB
}

// NewLenderService creates a new LenderServicer.
func NewLenderService(db *gorm.DB) LenderServicer {
	return &lenderService{db: db}
}

// CreateLender registers a lender with an optional opening balance.
func (s *lenderService) CreateLender(name, email string, initialCapital decimal.Decimal) (*models.Lender, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Name and email are required")
	}
	if initialCapital.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Initial capital must not be negative")
	}

	var existing models.Lender
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	lender := &models.Lender{
		Name:             name,
		Email:            email,
		AvailableCapital: initialCapital.Round(2),
		IsActive:         true,
	}
	if err := s.db.Create(lender).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return lender, nil
}

// GetLenderByID retrieves a lender by ID.
func (s *lenderService) GetLenderByID(lenderID string) (*models.Lender, error) {
	var lender models.Lender
	if err := s.db.Where("id = ?", lenderID).First(&lender).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLenderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &lender, nil
}

// Deposit credits the lender's wallet.
func (s *lenderService) Deposit(lenderID string, amount decimal.Decimal) (*models.Lender, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Deposit amount must be positive")
	}
	if _, err := s.GetLenderByID(lenderID); err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Lender{}).
		Where("id = ?", lenderID).
		Update("available_capital", gorm.Expr("available_capital + ?", amount.Round(2))).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetLenderByID(lenderID)
}

// Withdraw debits the lender's wallet. The balance never goes negative.
func (s *lenderService) Withdraw(lenderID string, amount decimal.Decimal) (*models.Lender, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Withdrawal amount must be positive")
	}
	if _, err := s.GetLenderByID(lenderID); err != nil {
		return nil, err
	}

	if err := s.DebitCapital(s.db, lenderID, amount.Round(2)); err != nil {
		return nil, err
	}
	return s.GetLenderByID(lenderID)
}

// ListActiveLenderIDs returns the IDs of lenders eligible for auto-invest sweeps.
func (s *lenderService) ListActiveLenderIDs() ([]string, error) {
	var ids []string
	if err := s.db.Model(&models.Lender{}).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ids, nil
}

// TotalAvailableCapital sums the uncommitted capital of all active lenders.
func (s *lenderService) TotalAvailableCapital() (decimal.Decimal, error) {
	var balances []decimal.Decimal
	if err := s.db.Model(&models.Lender{}).
		Where("is_active = ?", true).
		Pluck("available_capital", &balances).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return decimal.Sum(decimal.Zero, balances...), nil
}

// DebitCapital subtracts amount from the lender's balance using tx. The
// update is conditional on the balance covering the amount, so concurrent
// debits cannot overdraw the wallet.
func (s *lenderService) DebitCapital(tx *gorm.DB, lenderID string, amount decimal.Decimal) error {
	result := tx.Model(&models.Lender{}).
		Where("id = ? AND available_capital >= ?", lenderID, amount).
		Update("available_capital", gorm.Expr("available_capital - ?", amount))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Lender{}).Where("id = ?", lenderID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return apperrors.ErrLenderNotFound
		}
		return apperrors.ErrInsufficientCapital
	}
	return nil
}
