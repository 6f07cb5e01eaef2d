package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/logger"
	"lendhub/internal/marketplace"
	"lendhub/internal/models"
)

// Skip reasons reported in SweepResult.Skipped besides the rule check names.
const (
	SkipDailyCap        = "daily_cap"
	SkipMonthlyCap      = "monthly_cap"
	SkipAlreadyInvested = "already_invested"
	SkipVendorCap       = "vendor_cap"
	SkipCapitalReserve  = "capital_reserve"
	SkipBelowMin        = "below_min_investment"
	SkipCommitRejected  = "commit_rejected"
)

// autoInvestService runs lenders' auto-invest rules against the open catalog.
type autoInvestService struct {
	db                 *gorm.DB
	lenderService      LenderServicer
	ruleService        RuleServicer
	opportunityService OpportunityServicer
	investmentService  InvestmentServicer
	auditService       AuditServicer
	clock              Clock
}

// NewAutoInvestService creates a new AutoInvestServicer.
func NewAutoInvestService(
	db *gorm.DB,
	lenderService LenderServicer,
	ruleService RuleServicer,
	opportunityService OpportunityServicer,
	investmentService InvestmentServicer,
	auditService AuditServicer,
	clock Clock,
) AutoInvestServicer {
	return &autoInvestService{
		db:                 db,
		lenderService:      lenderService,
		ruleService:        ruleService,
		opportunityService: opportunityService,
		investmentService:  investmentService,
		auditService:       auditService,
		clock:              clock.orDefault(),
	}
}

// exposure is what a lender already holds, keyed for the sweep's guards.
type exposure struct {
	opportunities map[string]bool
	vendors       map[string]decimal.Decimal
}

// RunForLender evaluates the lender's active rules in creation order. Each
// rule walks the open opportunities best score first and commits the largest
// amount its vendor cap, the listing's bounds and the lender's capital reserve
// allow. A lender never invests twice in the same opportunity.
func (s *autoInvestService) RunForLender(ctx context.Context, lenderID string) (*SweepResult, error) {
	log := logger.Named("auto_invest")
	now := s.clock()

	result := &SweepResult{
		LenderID:      lenderID,
		Investments:   []models.Investment{},
		TotalInvested: decimal.Zero,
		Skipped:       map[string]int{},
	}

	lender, err := s.lenderService.GetLenderByID(lenderID)
	if err != nil {
		return nil, err
	}
	if !lender.IsActive {
		return result, nil
	}

	rules, err := s.ruleService.GetActiveRules(lenderID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return result, nil
	}

	catalog, err := s.opportunityService.Catalog()
	if err != nil {
		return nil, err
	}
	candidates := make([]models.Opportunity, 0, len(catalog))
	for _, o := range catalog {
		if marketplace.IsOpen(o, now) {
			candidates = append(candidates, o)
		}
	}
	candidates = marketplace.Sort(candidates, marketplace.DefaultSortMode)

	held, err := s.loadExposure(lenderID)
	if err != nil {
		return nil, err
	}
	capital := lender.AvailableCapital

	skip := func(rule models.AutoInvestRule, o models.Opportunity, reason string) {
		result.Skipped[reason]++
		log.Debugw("auto-invest skipped",
			"lender_id", lenderID,
			"rule_id", rule.ID,
			"opportunity_id", o.ID,
			"reason", reason,
		)
	}

	for _, rule := range rules {
		result.RulesEvaluated++

		daily, monthly, err := s.countRuleInvestments(rule.ID, now)
		if err != nil {
			return result, err
		}

	candidatesLoop:
		for i := range candidates {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			o := candidates[i]
			if !marketplace.IsOpen(o, now) {
				continue
			}
			if check, failed := marketplace.Mismatch(o, rule); failed {
				skip(rule, o, string(check))
				continue
			}
			result.Matches++

			switch {
			case rule.MaxDailyInvestments != nil && daily >= *rule.MaxDailyInvestments:
				skip(rule, o, SkipDailyCap)
				break candidatesLoop
			case rule.MaxMonthlyInvestments != nil && monthly >= *rule.MaxMonthlyInvestments:
				skip(rule, o, SkipMonthlyCap)
				break candidatesLoop
			case held.opportunities[o.ID]:
				skip(rule, o, SkipAlreadyInvested)
				continue
			}

			headroom := rule.MaxInvestmentPerVendor.Sub(held.vendors[o.VendorID])
			if !headroom.IsPositive() {
				skip(rule, o, SkipVendorCap)
				continue
			}
			spendable := capital.Sub(rule.MinAvailableCapital)
			if !spendable.IsPositive() {
				skip(rule, o, SkipCapitalReserve)
				break
			}

			amount := decimal.Min(headroom, o.MaxInvestment, marketplace.RemainingAmount(o), spendable).Round(2)
			if err := marketplace.CheckInvestmentAmount(o, amount); err != nil {
				skip(rule, o, SkipBelowMin)
				continue
			}

			investment, next, updated, err := s.commit(rule, o, amount, now)
			if err != nil {
				if errors.Is(err, apperrors.ErrInternalServer) {
					return result, err
				}
				skip(rule, o, SkipCommitRejected)
				continue
			}

			candidates[i] = *next
			rule = updated
			capital = capital.Sub(amount)
			held.opportunities[o.ID] = true
			held.vendors[o.VendorID] = held.vendors[o.VendorID].Add(amount)
			daily++
			monthly++
			result.Investments = append(result.Investments, *investment)
			result.TotalInvested = result.TotalInvested.Add(amount)

			s.auditService.Log(lenderID, "AUTO_INVEST", "investment", investment.ID, "", map[string]any{
				"rule_id":        rule.ID,
				"opportunity_id": o.ID,
				"amount":         amount.String(),
			})
		}
	}

	if len(result.Investments) > 0 {
		log.Infow("auto-invest sweep committed capital",
			"lender_id", lenderID,
			"investments", len(result.Investments),
			"total", result.TotalInvested.String(),
		)
	}
	return result, nil
}

// commit records one auto investment and the rule's advanced totals atomically.
func (s *autoInvestService) commit(rule models.AutoInvestRule, o models.Opportunity, amount decimal.Decimal, now time.Time) (*models.Investment, *models.Opportunity, models.AutoInvestRule, error) {
	var (
		investment *models.Investment
		next       *models.Opportunity
		updated    models.AutoInvestRule
	)
	ruleID := rule.ID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		inv, opp, err := s.investmentService.Commit(tx, CommitRequest{
			LenderID:      rule.LenderID,
			OpportunityID: o.ID,
			Amount:        amount,
			RuleID:        &ruleID,
			Source:        models.InvestmentSourceAuto,
			At:            now,
		})
		if err != nil {
			return err
		}
		updated = marketplace.RecordInvestment(rule, amount, now)
		if err := s.ruleService.SaveRuleTotals(tx, updated); err != nil {
			return err
		}
		investment, next = inv, opp
		return nil
	})
	if err != nil {
		return nil, nil, rule, err
	}
	return investment, next, updated, nil
}

func (s *autoInvestService) loadExposure(lenderID string) (*exposure, error) {
	var investments []models.Investment
	if err := s.db.Select("opportunity_id", "vendor_id", "amount").
		Where("lender_id = ?", lenderID).
		Find(&investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	held := &exposure{
		opportunities: make(map[string]bool, len(investments)),
		vendors:       make(map[string]decimal.Decimal),
	}
	for _, inv := range investments {
		held.opportunities[inv.OpportunityID] = true
		held.vendors[inv.VendorID] = held.vendors[inv.VendorID].Add(inv.Amount)
	}
	return held, nil
}

// countRuleInvestments returns how many investments the rule made on the
// current UTC day and month.
func (s *autoInvestService) countRuleInvestments(ruleID string, now time.Time) (int, int, error) {
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var daily, monthly int64
	if err := s.db.Model(&models.Investment{}).
		Where("rule_id = ? AND committed_at >= ?", ruleID, dayStart).
		Count(&daily).Error; err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Investment{}).
		Where("rule_id = ? AND committed_at >= ?", ruleID, monthStart).
		Count(&monthly).Error; err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return int(daily), int(monthly), nil
}

// RunAll sweeps every active lender. A failing lender is logged and skipped.
func (s *autoInvestService) RunAll(ctx context.Context) ([]SweepResult, error) {
	ids, err := s.lenderService.ListActiveLenderIDs()
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.RunForLender(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			logger.Get().Errorw("auto-invest sweep failed", "lender_id", id, "error", err)
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}
