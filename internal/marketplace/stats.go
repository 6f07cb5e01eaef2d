package marketplace

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"lendhub/internal/models"
)

// DefaultStatsExpiringWindowDays is the ExpiringSoon window used when
// AggregateOptions leaves it unset.
const DefaultStatsExpiringWindowDays = 7

// MarketplaceStats summarizes a set of opportunities.
type MarketplaceStats struct {
	TotalOpportunities int             `json:"total_opportunities"`
	AvailableCapital   decimal.Decimal `json:"available_capital"`
	TotalFundingNeeded decimal.Decimal `json:"total_funding_needed"`
	AverageScore       int             `json:"average_score"`
	NewToday           int             `json:"new_today"`
	ExpiringSoon       int             `json:"expiring_soon"`
}

// AggregateOptions tunes Aggregate.
type AggregateOptions struct {
	ExpiringWindowDays int
}

// Aggregate computes stats over opps in a single pass. availableCapital is
// passed through untouched. The caller decides whether opps is a filtered
// view or the whole catalog.
func Aggregate(opps []models.Opportunity, availableCapital decimal.Decimal, now time.Time, opts AggregateOptions) MarketplaceStats {
	window := opts.ExpiringWindowDays
	if window <= 0 {
		window = DefaultStatsExpiringWindowDays
	}

	stats := MarketplaceStats{
		TotalOpportunities: len(opps),
		AvailableCapital:   availableCapital,
		TotalFundingNeeded: decimal.Zero,
	}
	scoreSum := 0
	for _, o := range opps {
		stats.TotalFundingNeeded = stats.TotalFundingNeeded.Add(RemainingAmount(o))
		scoreSum += o.MerchantScore
		if IsListedOn(o, now) {
			stats.NewToday++
		}
		if IsExpiringWithin(o, now, window) {
			stats.ExpiringSoon++
		}
	}
	if len(opps) > 0 {
		stats.AverageScore = int(math.Round(float64(scoreSum) / float64(len(opps))))
	}
	return stats
}
