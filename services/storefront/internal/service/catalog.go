package service

import "github.com/Skotchmaster/liontv_shop/services/storefront/internal/transport"

var plans = []transport.Plan{
	{Name: "Monthly", Price: 999, Duration: "1 month"},
	{Name: "Quarterly", Price: 2499, Duration: "3 months"},
	{Name: "6 Months", Price: 4499, Duration: "6 months"},
	{Name: "Annual", Price: 7999, Duration: "12 months"},
}

type CatalogService struct{}

// Plans returns the storefront's plan list. Orders snapshot the price the
// client submitted, so this list is display-only.
func (CatalogService) Plans() []transport.Plan {
	out := make([]transport.Plan, len(plans))
	copy(out, plans)
	return out
}
