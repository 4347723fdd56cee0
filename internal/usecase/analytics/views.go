// Package analytics derives chart and KPI views from enriched sales.
//
// Every view is a pure function of its input and reports "no data" through a
// false second return value instead of emitting degenerate zero-valued series.
package analytics

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/usecase/grouping"
)

const (
	// TopN is the length of the revenue rankings
	TopN = 10
	// MonthWindow is the number of most recent months kept by MonthlyComparison
	MonthWindow = 12
)

// DailyPoint is the revenue of one calendar day
type DailyPoint struct {
	Date         time.Time       `json:"date"`
	TotalRevenue decimal.Decimal `json:"total_revenue"` // net: refunds reduce it
	RefundAmount decimal.Decimal `json:"refund_amount"` // absolute value of refunds
}

// WeekdayTotal is the net revenue of every sale falling on one weekday
type WeekdayTotal struct {
	Weekday time.Weekday    `json:"weekday"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
}

// MonthlyPoint compares gross revenue with refunds for one calendar month
type MonthlyPoint struct {
	Month        time.Time       `json:"month"` // first day of the month, UTC
	GrossRevenue decimal.Decimal `json:"gross_revenue"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	NetRevenue   decimal.Decimal `json:"net_revenue"`
	RefundRate   decimal.Decimal `json:"refund_rate"`
}

// Ranked is one entry of a revenue ranking
type Ranked struct {
	Label     string          `json:"label"`
	Revenue   decimal.Decimal `json:"revenue"`
	SaleCount int             `json:"sale_count"`
}

// split separates a sale amount into its positive and refunded parts.
// refund is stored as a magnitude.
type split struct {
	gross  decimal.Decimal
	refund decimal.Decimal
}

func splitOf(price decimal.Decimal) split {
	if price.IsNegative() {
		return split{gross: decimal.Zero, refund: price.Abs()}
	}
	return split{gross: price, refund: decimal.Zero}
}

// RefundRate is refunds / gross, or zero when there is no positive revenue
func RefundRate(gross, refunds decimal.Decimal) decimal.Decimal {
	if !gross.IsPositive() {
		return decimal.Zero
	}
	return refunds.Abs().Div(gross)
}

// DailyTrend sums sales per calendar date in ascending order.
// Days without sales are not synthesized.
func DailyTrend(sales []domain.EnrichedSale) ([]DailyPoint, bool) {
	if len(sales) == 0 {
		return nil, false
	}

	buckets := dailyBuckets(sales)
	days := make([]time.Time, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })

	points := make([]DailyPoint, 0, len(days))
	for _, day := range days {
		points = append(points, buckets[day])
	}
	return points, true
}

// MaxFilledDays is the longest range DailyTrendBetween fills with empty days
const MaxFilledDays = 731

// DailyTrendBetween is DailyTrend on a continuous axis from..to (inclusive).
// Missing days get zero values and sales outside the range are ignored.
// Ranges longer than MaxFilledDays keep only the days that have sales.
func DailyTrendBetween(sales []domain.EnrichedSale, from, to time.Time) ([]DailyPoint, bool) {
	from, to = domain.CalendarDate(from), domain.CalendarDate(to)
	if len(sales) == 0 || to.Before(from) {
		return nil, false
	}

	buckets := dailyBuckets(sales)
	if spanDays(from, to) > MaxFilledDays {
		return sparseBetween(buckets, from, to)
	}

	points := make([]DailyPoint, 0)
	inRange := false
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		point, ok := buckets[day]
		if ok {
			inRange = true
		} else {
			point = DailyPoint{Date: day, TotalRevenue: decimal.Zero, RefundAmount: decimal.Zero}
		}
		points = append(points, point)
	}

	if !inRange {
		return nil, false
	}
	return points, true
}

// spanDays counts the days of from..to inclusive. Sub saturates, so very
// long ranges still compare as large.
func spanDays(from, to time.Time) int64 {
	return int64(to.Sub(from)/(24*time.Hour)) + 1
}

func sparseBetween(buckets map[time.Time]DailyPoint, from, to time.Time) ([]DailyPoint, bool) {
	days := make([]time.Time, 0, len(buckets))
	for day := range buckets {
		if !day.Before(from) && !day.After(to) {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, false
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })

	points := make([]DailyPoint, 0, len(days))
	for _, day := range days {
		points = append(points, buckets[day])
	}
	return points, true
}

func dailyBuckets(sales []domain.EnrichedSale) map[time.Time]DailyPoint {
	buckets := make(map[time.Time]DailyPoint)
	for _, sale := range sales {
		day := domain.CalendarDate(sale.SaleDate)
		point, ok := buckets[day]
		if !ok {
			point = DailyPoint{Date: day, TotalRevenue: decimal.Zero, RefundAmount: decimal.Zero}
		}
		s := splitOf(sale.SalePrice)
		point.TotalRevenue = point.TotalRevenue.Add(sale.SalePrice)
		point.RefundAmount = point.RefundAmount.Add(s.refund)
		buckets[day] = point
	}
	return buckets
}

// WeekdayTotals returns seven buckets, Sunday first, regardless of which
// weekdays have sales
func WeekdayTotals(sales []domain.EnrichedSale) ([]WeekdayTotal, bool) {
	if len(sales) == 0 {
		return nil, false
	}

	totals := make([]WeekdayTotal, 7)
	for i := range totals {
		totals[i] = WeekdayTotal{Weekday: time.Weekday(i), Total: decimal.Zero}
	}
	for _, sale := range sales {
		wd := domain.CalendarDate(sale.SaleDate).Weekday()
		totals[wd].Total = totals[wd].Total.Add(sale.SalePrice)
		totals[wd].Count++
	}
	return totals, true
}

// MonthlyComparison buckets sales by calendar month and keeps the MonthWindow
// most recent months present in the data, oldest first
func MonthlyComparison(sales []domain.EnrichedSale) ([]MonthlyPoint, bool) {
	if len(sales) == 0 {
		return nil, false
	}

	buckets := make(map[time.Time]*MonthlyPoint)
	for _, sale := range sales {
		y, m, _ := sale.SaleDate.Date()
		month := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		point, ok := buckets[month]
		if !ok {
			point = &MonthlyPoint{
				Month:        month,
				GrossRevenue: decimal.Zero,
				RefundAmount: decimal.Zero,
				NetRevenue:   decimal.Zero,
			}
			buckets[month] = point
		}
		s := splitOf(sale.SalePrice)
		point.GrossRevenue = point.GrossRevenue.Add(s.gross)
		point.RefundAmount = point.RefundAmount.Add(s.refund)
		point.NetRevenue = point.NetRevenue.Add(sale.SalePrice)
	}

	months := make([]time.Time, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	slices.SortFunc(months, func(a, b time.Time) int { return a.Compare(b) })
	if len(months) > MonthWindow {
		months = months[len(months)-MonthWindow:]
	}

	points := make([]MonthlyPoint, 0, len(months))
	for _, month := range months {
		point := *buckets[month]
		point.RefundRate = RefundRate(point.GrossRevenue, point.RefundAmount)
		points = append(points, point)
	}
	return points, true
}

// TopInstrumentTypes ranks instrument types by net revenue.
// Sales without an attached instrument are excluded.
func TopInstrumentTypes(sales []domain.EnrichedSale) ([]Ranked, bool) {
	return topBy(sales, func(i *domain.Instrument) string { return i.Type })
}

// TopMakers ranks instrument makers by net revenue.
// Sales without an attached instrument are excluded.
func TopMakers(sales []domain.EnrichedSale) ([]Ranked, bool) {
	return topBy(sales, func(i *domain.Instrument) string { return i.Maker })
}

// topBy sums revenue per label, sorts descending and keeps TopN.
// Ties keep first-seen order because grouping preserves it and the sort is stable.
func topBy(sales []domain.EnrichedSale, labelFn func(*domain.Instrument) string) ([]Ranked, bool) {
	withInstrument := make([]domain.EnrichedSale, 0, len(sales))
	for _, sale := range sales {
		if sale.Instrument != nil {
			withInstrument = append(withInstrument, sale)
		}
	}
	if len(withInstrument) == 0 {
		return nil, false
	}

	grouped := grouping.GroupByType(withInstrument, func(s domain.EnrichedSale) string {
		return labelFn(s.Instrument)
	})

	ranking := make([]Ranked, 0, grouped.Len())
	for _, label := range grouped.Keys() {
		group, _ := grouped.Get(label)
		revenue := decimal.Zero
		for _, sale := range group {
			revenue = revenue.Add(sale.SalePrice)
		}
		ranking = append(ranking, Ranked{Label: label, Revenue: revenue, SaleCount: len(group)})
	}

	slices.SortStableFunc(ranking, func(a, b Ranked) int {
		return b.Revenue.Cmp(a.Revenue)
	})
	if len(ranking) > TopN {
		ranking = ranking[:TopN]
	}
	return ranking, true
}
