package analytics

// Report bundles the four breakdowns served to clients.
type Report struct {
	RevenuePerMonth    Series `json:"revenue_per_month"`
	RevenuePerProduct  Series `json:"revenue_per_product"`
	RevenuePerCustomer Series `json:"revenue_per_customer"`
	TopCustomers       Series `json:"top_10_customers"`
}

// BuildReport computes every breakdown sequentially and fails on the first
// data error.
func BuildReport(ds Dataset) (*Report, error) {
	byMonth, err := RevenueByMonth(ds)
	if err != nil {
		return nil, err
	}
	byProduct, err := RevenueByProduct(ds)
	if err != nil {
		return nil, err
	}
	byCustomer, err := RevenueByCustomer(ds)
	if err != nil {
		return nil, err
	}
	return &Report{
		RevenuePerMonth:    byMonth,
		RevenuePerProduct:  byProduct,
		RevenuePerCustomer: byCustomer,
		TopCustomers:       rankTop(byCustomer, DefaultTopCustomers),
	}, nil
}
