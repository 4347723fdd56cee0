package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// queryStore is the CLI's address bar. Every replacement is queued for a fetch;
// only the latest pending query is kept.
type queryStore struct {
	mu      sync.Mutex
	values  url.Values
	changes chan url.Values
}

func newQueryStore(initial url.Values) *queryStore {
	if initial == nil {
		initial = url.Values{}
	}
	return &queryStore{values: initial, changes: make(chan url.Values, 1)}
}

func (s *queryStore) Query() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneValues(s.values)
}

func (s *queryStore) ReplaceQuery(values url.Values) {
	s.mu.Lock()
	s.values = cloneValues(values)
	s.mu.Unlock()

	for {
		select {
		case s.changes <- cloneValues(values):
			return
		default:
			select {
			case <-s.changes:
			default:
			}
		}
	}
}

func (s *queryStore) Changes() <-chan url.Values {
	return s.changes
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// dashboardSummary is the part of the dashboard response the CLI prints
type dashboardSummary struct {
	Query      string
	HasData    bool
	NetRevenue decimal.Decimal
	Sales      int
	Refunds    int
	RefundRate *decimal.Decimal
}

func (d dashboardSummary) String() string {
	if !d.HasData {
		return fmt.Sprintf("[%s] no sales match", d.Query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] net %s, %d sales, %d refunds", d.Query, d.NetRevenue.StringFixed(2), d.Sales, d.Refunds)
	if d.RefundRate != nil {
		fmt.Fprintf(&b, ", refund rate %s%%", d.RefundRate.StringFixed(1))
	}
	return b.String()
}

type dashboardClient struct {
	baseURL string
	http    *http.Client
}

// Fetch loads the dashboard for query from the HTTP API
func (c *dashboardClient) Fetch(ctx context.Context, query url.Values) (*dashboardSummary, error) {
	target := strings.TrimRight(c.baseURL, "/") + "/api/v1/sales/dashboard"
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dashboard: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Report struct {
				HasData bool `json:"has_data"`
				Summary struct {
					NetRevenue  decimal.Decimal `json:"net_revenue"`
					SaleCount   int             `json:"sale_count"`
					RefundCount int             `json:"refund_count"`
				} `json:"summary"`
				RefundRate *decimal.Decimal `json:"refund_rate"`
			} `json:"report"`
		} `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Meta *struct {
			Query string `json:"query"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard (status %d): %w", resp.StatusCode, err)
	}
	if !body.Success {
		if body.Error != nil {
			return nil, fmt.Errorf("dashboard request failed: %s: %s", body.Error.Code, body.Error.Message)
		}
		return nil, fmt.Errorf("dashboard request failed with status %d", resp.StatusCode)
	}

	r := body.Data.Report
	summary := &dashboardSummary{
		HasData:    r.HasData,
		NetRevenue: r.Summary.NetRevenue,
		Sales:      r.Summary.SaleCount,
		Refunds:    r.Summary.RefundCount,
		RefundRate: r.RefundRate,
	}
	if body.Meta != nil {
		summary.Query = body.Meta.Query
	}
	return summary, nil
}
