package domain

import "time"

// ReportStatus is a free-form workflow label set by the reporter.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusReviewed ReportStatus = "reviewed"
	ReportStatusClosed   ReportStatus = "closed"
)

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Report records a field visit to a station. Reports are owned by the
// principal that created them.
type Report struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	StationID    string       `json:"stationId" bson:"station_id"`
	StationName  string       `json:"stationName,omitempty" bson:"station_name,omitempty"`
	VisitDate    time.Time    `json:"visitDate" bson:"visit_date"`
	Observations string       `json:"observations,omitempty" bson:"observations,omitempty"`
	Activities   string       `json:"activities,omitempty" bson:"activities,omitempty"`
	Status       ReportStatus `json:"status,omitempty" bson:"status,omitempty"`
	Location     *Coordinates `json:"location,omitempty" bson:"location,omitempty"`
	UserID       string       `json:"userId" bson:"user_id"`
	CreatedAt    time.Time    `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updated_at"`
}

// StatusCount is the number of reports carrying a given status.
type StatusCount struct {
	Status ReportStatus `json:"status" bson:"_id"`
	Count  int64        `json:"count" bson:"count"`
}

// ReportStats summarises the report store.
type ReportStats struct {
	Total    int64         `json:"totalReports"`
	ByStatus []StatusCount `json:"reportsByStatus"`
	Recent   []*Report     `json:"recentReports"`
}
