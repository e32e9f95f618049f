package models

import "time"

// Order is one row of the source dataset. Fields keep their raw text so that
// malformed values surface when an aggregation interprets them.
type Order struct {
	OrderID      string
	OrderDate    string
	ProductID    string
	CustomerID   string
	ProductPrice string
}

// DatasetStats summarises the loaded snapshot. ReportedAt is zero until a
// report has been computed for it.
type DatasetStats struct {
	Source     string    `json:"source,omitempty"`
	Records    int       `json:"record_count"`
	Products   int       `json:"products"`
	Customers  int       `json:"customers"`
	LoadedAt   time.Time `json:"loaded_at"`
	ReportedAt time.Time `json:"last_report,omitzero"`
}
