// Package reports derives read-only sales views from the order collection.
package reports

import (
	"sort"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/pricing"
	"github.com/shopspring/decimal"
)

// DefaultBestSellersLimit is used when a caller asks for a non-positive limit
const DefaultBestSellersLimit = 10

// OrderSource is the read side of the order store
type OrderSource interface {
	Orders() []models.Order
	SalesToday() []models.Order
}

// DailySales summarises orders paid today
type DailySales struct {
	Orders           int             `json:"orders"`
	ItemsSold        int             `json:"items_sold"`
	Revenue          decimal.Decimal `json:"revenue"`
	FormattedRevenue string          `json:"formatted_revenue"`
}

// BestSeller is one row of the best sellers ranking
type BestSeller struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// PaymentShare is the revenue settled with one payment method
type PaymentShare struct {
	Method  models.PaymentMethod `json:"method"`
	Orders  int                  `json:"orders"`
	Revenue decimal.Decimal      `json:"revenue"`
}

// PaidRatio compares paid orders with every order ever opened
type PaidRatio struct {
	Paid    int     `json:"paid"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Service computes reports on demand. It holds no state of its own.
type Service struct {
	source OrderSource
}

// NewService creates a report service over source
func NewService(source OrderSource) *Service {
	return &Service{source: source}
}

// DailySales totals today's paid orders
func (s *Service) DailySales() DailySales {
	report := DailySales{Revenue: decimal.Zero}
	for _, o := range s.source.SalesToday() {
		report.Orders++
		report.Revenue = report.Revenue.Add(o.Total)
		for _, item := range o.Items {
			report.ItemsSold += item.Quantity
		}
	}
	report.FormattedRevenue = pricing.FormatPrice(report.Revenue)
	return report
}

// BestSellers ranks items sold today by quantity, keyed by name.
// Ties are broken by name so the ranking is stable.
func (s *Service) BestSellers(limit int) []BestSeller {
	if limit <= 0 {
		limit = DefaultBestSellersLimit
	}

	byName := make(map[string]*BestSeller)
	for _, o := range s.source.SalesToday() {
		for _, item := range o.Items {
			row, ok := byName[item.Name]
			if !ok {
				row = &BestSeller{Name: item.Name, Revenue: decimal.Zero}
				byName[item.Name] = row
			}
			row.Quantity += item.Quantity
			row.Revenue = row.Revenue.Add(pricing.LineTotal(item.UnitPrice, item.Quantity))
		}
	}

	ranking := make([]BestSeller, 0, len(byName))
	for _, row := range byName {
		ranking = append(ranking, *row)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Quantity != ranking[j].Quantity {
			return ranking[i].Quantity > ranking[j].Quantity
		}
		return ranking[i].Name < ranking[j].Name
	})

	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking
}

// PaymentBreakdown groups today's revenue by payment method, highest revenue first.
// Orders without a method are reported under "N/A".
func (s *Service) PaymentBreakdown() []PaymentShare {
	byMethod := make(map[models.PaymentMethod]*PaymentShare)
	for _, o := range s.source.SalesToday() {
		method := o.PaymentMethod
		if method == "" {
			method = models.PaymentMethodNotApplicable
		}
		share, ok := byMethod[method]
		if !ok {
			share = &PaymentShare{Method: method, Revenue: decimal.Zero}
			byMethod[method] = share
		}
		share.Orders++
		share.Revenue = share.Revenue.Add(o.Total)
	}

	shares := make([]PaymentShare, 0, len(byMethod))
	for _, share := range byMethod {
		shares = append(shares, *share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].Revenue.Cmp(shares[j].Revenue); c != 0 {
			return c > 0
		}
		return shares[i].Method < shares[j].Method
	})
	return shares
}

// PaidRatio returns the share of orders that reached Paid
func (s *Service) PaidRatio() PaidRatio {
	all := s.source.Orders()
	ratio := PaidRatio{Total: len(all)}
	for _, o := range all {
		if o.Status == models.OrderStatusPaid {
			ratio.Paid++
		}
	}
	if ratio.Total > 0 {
		ratio.Percent = float64(ratio.Paid) / float64(ratio.Total) * 100
	}
	return ratio
}
