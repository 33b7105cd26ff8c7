package analytics

import "github.com/shopspring/decimal"

// Summary is the headline dashboard block.
type Summary struct {
	TotalQuotations int64           `json:"total_quotations"`
	OpenQuotations  int64           `json:"open_quotations"`
	AcceptedValue   decimal.Decimal `json:"accepted_value"`
	PipelineValue   decimal.Decimal `json:"pipeline_value"`
	AcceptanceRate  decimal.Decimal `json:"acceptance_rate"`
	ActiveProducts  int64           `json:"active_products"`
	ActiveSuppliers int64           `json:"active_suppliers"`
}

// StatusCount groups quotations by lifecycle status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// MonthlyTotal aggregates quotation value per calendar month.
type MonthlyTotal struct {
	Month    string          `json:"month"`
	Count    int64           `json:"count"`
	Total    decimal.Decimal `json:"total"`
	Accepted decimal.Decimal `json:"accepted"`
}

// TopClient ranks clients by accepted quotation value.
type TopClient struct {
	ClientName string          `json:"client_name"`
	Count      int64           `json:"count"`
	Total      decimal.Decimal `json:"total"`
}

// Dashboard is the full payload served to the dashboard view.
type Dashboard struct {
	Summary      Summary        `json:"summary"`
	ByStatus     []StatusCount  `json:"by_status"`
	Monthly      []MonthlyTotal `json:"monthly"`
	TopClients   []TopClient    `json:"top_clients"`
	MonthsWindow int            `json:"months_window"`
}
