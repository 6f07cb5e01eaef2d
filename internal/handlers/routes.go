package handlers

import "github.com/gin-gonic/gin"

// Handlers bundles every HTTP handler of the API.
type Handlers struct {
	Opportunity *OpportunityHandler
	Lender      *LenderHandler
	Rule        *RuleHandler
	Investment  *InvestmentHandler
	AutoInvest  *AutoInvestHandler
	View        *ViewHandler
	Market      *MarketHandler
}

// RegisterRoutes mounts the API on rg.
func RegisterRoutes(rg *gin.RouterGroup, h Handlers) {
	opportunities := rg.Group("/opportunities")
	opportunities.POST("", h.Opportunity.CreateOpportunity)
	opportunities.GET("", h.Opportunity.ListOpportunities)
	opportunities.GET("/stats", h.Opportunity.GetMarketplaceStats)
	opportunities.GET("/:id", h.Opportunity.GetOpportunity)
	opportunities.POST("/:id/interest", h.Opportunity.RecordInterest)

	lenders := rg.Group("/lenders")
	lenders.POST("", h.Lender.CreateLender)

	lender := lenders.Group("/:lenderID")
	lender.GET("", h.Lender.GetLender)
	lender.POST("/deposit", h.Lender.Deposit)
	lender.POST("/withdraw", h.Lender.Withdraw)

	rules := lender.Group("/rules")
	rules.POST("", h.Rule.CreateRule)
	rules.GET("", h.Rule.GetRules)
	rules.GET("/:id", h.Rule.GetRule)
	rules.PUT("/:id", h.Rule.UpdateRule)
	rules.POST("/:id/activate", h.Rule.ActivateRule)
	rules.POST("/:id/deactivate", h.Rule.DeactivateRule)
	rules.GET("/:id/matches", h.Rule.GetRuleMatches)

	lender.POST("/investments", h.Investment.Invest)
	lender.GET("/investments", h.Investment.GetInvestments)
	lender.GET("/portfolio", h.Investment.GetPortfolio)
	lender.POST("/auto-invest/run", h.AutoInvest.RunAutoInvest)

	view := lender.Group("/view")
	view.GET("", h.View.GetView)
	view.PUT("", h.View.ReplaceView)
	view.DELETE("", h.View.ClearView)
	view.POST("/toggle", h.View.ToggleFilter)

	rg.GET("/market/snapshots", h.Market.GetSnapshots)
}
