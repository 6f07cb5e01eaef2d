package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/logger"
	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/pagination"
)

// investmentService handles capital commitments.
type investmentService struct {
	db            *gorm.DB
	lenderService LenderServicer
	clock         Clock
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(db *gorm.DB, lenderService LenderServicer, clock Clock) InvestmentServicer {
	return &investmentService{db: db, lenderService: lenderService, clock: clock.orDefault()}
}

// Invest commits amount from the lender's wallet to the opportunity.
func (s *investmentService) Invest(lenderID, opportunityID string, amount decimal.Decimal) (*models.Investment, error) {
	lender, err := s.lenderService.GetLenderByID(lenderID)
	if err != nil {
		return nil, err
	}
	if !lender.IsActive {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Lender is inactive")
	}

	var investment *models.Investment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		inv, _, txErr := s.Commit(tx, CommitRequest{
			LenderID:      lenderID,
			OpportunityID: opportunityID,
			Amount:        amount,
			Source:        models.InvestmentSourceManual,
			At:            s.clock(),
		})
		investment = inv
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return investment, nil
}

// Commit moves capital from a lender to an opportunity inside tx: it checks
// the amount against the opportunity's bounds, debits the wallet, advances
// the funded amount and status, and records the investment. The caller owns
// the transaction. The funded amount is updated only if it has not changed
// since it was read; a concurrent commitment makes this one fail.
func (s *investmentService) Commit(tx *gorm.DB, req CommitRequest) (*models.Investment, *models.Opportunity, error) {
	amount := req.Amount.Round(2)

	var opp models.Opportunity
	if err := tx.Where("id = ?", req.OpportunityID).First(&opp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrOpportunityNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	next, err := marketplace.ApplyFunding(opp, amount, req.At)
	if err != nil {
		return nil, nil, err
	}

	if err := s.lenderService.DebitCapital(tx, req.LenderID, amount); err != nil {
		return nil, nil, err
	}

	result := tx.Model(&models.Opportunity{}).
		Where("id = ? AND funded_amount = ?", opp.ID, opp.FundedAmount).
		Updates(map[string]any{
			"funded_amount": next.FundedAmount,
			"status":        next.Status,
		})
	if result.Error != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil, apperrors.WithMessage(apperrors.ErrOpportunityClosed, "Opportunity funding changed, retry the investment")
	}

	investment := &models.Investment{
		LenderID:       req.LenderID,
		OpportunityID:  opp.ID,
		VendorID:       opp.VendorID,
		RuleID:         req.RuleID,
		Category:       opp.Category,
		Amount:         amount,
		ExpectedReturn: marketplace.ExpectedReturn(amount, opp),
		APR:            opp.APR,
		TermMonths:     opp.TermMonths,
		Source:         req.Source,
		CommittedAt:    req.At.UTC(),
	}
	if err := tx.Create(investment).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("capital committed",
		"lender_id", req.LenderID,
		"opportunity_id", opp.ID,
		"amount", amount.String(),
		"source", req.Source,
		"status", next.Status,
	)
	return investment, &next, nil
}

// GetLenderInvestments returns a paginated list of the lender's investments, newest first.
func (s *investmentService) GetLenderInvestments(lenderID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	page.Defaults()

	if _, err := s.lenderService.GetLenderByID(lenderID); err != nil {
		return nil, err
	}

	query := s.db.Model(&models.Investment{}).Where("lender_id = ?", lenderID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var investments []models.Investment
	if err := query.Order("committed_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(investments, page.Page, page.PageSize, total)
	return &result, nil
}

// GetLenderPortfolio aggregates the lender's commitments.
func (s *investmentService) GetLenderPortfolio(lenderID string) (*PortfolioSummary, error) {
	lender, err := s.lenderService.GetLenderByID(lenderID)
	if err != nil {
		return nil, err
	}

	var investments []models.Investment
	if err := s.db.Where("lender_id = ?", lenderID).Find(&investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &PortfolioSummary{
		LenderID:         lenderID,
		AvailableCapital: lender.AvailableCapital,
		TotalInvested:    decimal.Zero,
		ExpectedReturn:   decimal.Zero,
		InvestmentCount:  len(investments),
		ByCategory:       make(map[models.Category]CategorySummary),
	}

	weighted := decimal.Zero
	for _, inv := range investments {
		summary.TotalInvested = summary.TotalInvested.Add(inv.Amount)
		summary.ExpectedReturn = summary.ExpectedReturn.Add(inv.ExpectedReturn)
		weighted = weighted.Add(inv.Amount.Mul(decimal.NewFromFloat(inv.APR)))

		cat := summary.ByCategory[inv.Category]
		cat.Invested = cat.Invested.Add(inv.Amount)
		cat.Count++
		summary.ByCategory[inv.Category] = cat
	}

	summary.ExpectedProfit = summary.ExpectedReturn.Sub(summary.TotalInvested)
	if summary.TotalInvested.IsPositive() {
		summary.WeightedAPR = weighted.Div(summary.TotalInvested).Round(2).InexactFloat64()
	}
	return summary, nil
}
