package analytics

import (
	"slices"

	"github.com/shopspring/decimal"
	"github.com/simaogato/luthier-backend/internal/domain"
)

// Summary holds the headline KPIs of a set of sales
type Summary struct {
	NetRevenue   decimal.Decimal `json:"net_revenue"`
	GrossRevenue decimal.Decimal `json:"gross_revenue"`
	RefundTotal  decimal.Decimal `json:"refund_total"`
	AverageSale  decimal.Decimal `json:"average_sale"` // over positive sales only
	SaleCount    int             `json:"sale_count"`
	RefundCount  int             `json:"refund_count"`
}

// Summarize computes the KPI summary
func Summarize(sales []domain.EnrichedSale) (Summary, bool) {
	if len(sales) == 0 {
		return Summary{}, false
	}

	sum := Summary{
		NetRevenue:   decimal.Zero,
		GrossRevenue: decimal.Zero,
		RefundTotal:  decimal.Zero,
		AverageSale:  decimal.Zero,
	}
	for _, sale := range sales {
		s := splitOf(sale.SalePrice)
		sum.NetRevenue = sum.NetRevenue.Add(sale.SalePrice)
		sum.GrossRevenue = sum.GrossRevenue.Add(s.gross)
		sum.RefundTotal = sum.RefundTotal.Add(s.refund)
		if sale.IsRefund() {
			sum.RefundCount++
		} else {
			sum.SaleCount++
		}
	}

	if sum.SaleCount > 0 {
		sum.AverageSale = sum.GrossRevenue.Div(decimal.NewFromInt(int64(sum.SaleCount))).Round(2)
	}
	return sum, true
}

// OverallRefundRate applies RefundRate to the whole collection.
// It reports false when no refund exists so callers hide the figure instead of showing 0%.
func OverallRefundRate(sales []domain.EnrichedSale) (decimal.Decimal, bool) {
	gross, refunds := decimal.Zero, decimal.Zero
	hasRefund := false
	for _, sale := range sales {
		s := splitOf(sale.SalePrice)
		gross = gross.Add(s.gross)
		refunds = refunds.Add(s.refund)
		if sale.IsRefund() {
			hasRefund = true
		}
	}
	if !hasRefund {
		return decimal.Zero, false
	}
	return RefundRate(gross, refunds), true
}

// Report bundles every view for one set of sales. Nil slices mean "no data".
type Report struct {
	HasData    bool             `json:"has_data"`
	Summary    Summary          `json:"summary"`
	RefundRate *decimal.Decimal `json:"refund_rate,omitempty"`
	Daily      []DailyPoint     `json:"daily"`
	Weekday    []WeekdayTotal   `json:"weekday"`
	Monthly    []MonthlyPoint   `json:"monthly"`
	TopTypes   []Ranked         `json:"top_types"`
	TopMakers  []Ranked         `json:"top_makers"`
}

// Clone returns a copy that shares no slices or pointers with r
func (r Report) Clone() Report {
	c := r
	if r.RefundRate != nil {
		rate := *r.RefundRate
		c.RefundRate = &rate
	}
	c.Daily = slices.Clone(r.Daily)
	c.Weekday = slices.Clone(r.Weekday)
	c.Monthly = slices.Clone(r.Monthly)
	c.TopTypes = slices.Clone(r.TopTypes)
	c.TopMakers = slices.Clone(r.TopMakers)
	return c
}

// BuildReport computes every view independently
func BuildReport(sales []domain.EnrichedSale) Report {
	var r Report
	r.Summary, r.HasData = Summarize(sales)
	if rate, ok := OverallRefundRate(sales); ok {
		r.RefundRate = &rate
	}
	r.Daily, _ = DailyTrend(sales)
	r.Weekday, _ = WeekdayTotals(sales)
	r.Monthly, _ = MonthlyComparison(sales)
	r.TopTypes, _ = TopInstrumentTypes(sales)
	r.TopMakers, _ = TopMakers(sales)
	return r
}
