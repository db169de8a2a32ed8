package handler

import "time"

// --- Request / Response types ---

type createReportRequest struct {
	StationID    string    `json:"stationId"    validate:"required"`
	StationName  string    `json:"stationName"`
	VisitDate    time.Time `json:"visitDate"    validate:"required"`
	Observations string    `json:"observations"`
	Activities   string    `json:"activities"`
	Status       string    `json:"status"       validate:"omitempty,oneof=pending reviewed closed"`
	Latitude     *float64  `json:"latitude"     validate:"omitempty,latitude"`
	Longitude    *float64  `json:"longitude"    validate:"omitempty,longitude"`
}

type updateReportRequest struct {
	StationName  *string    `json:"stationName"`
	VisitDate    *time.Time `json:"visitDate"`
	Observations *string    `json:"observations"`
	Activities   *string    `json:"activities"`
	Status       *string    `json:"status"    validate:"omitempty,oneof=pending reviewed closed"`
	Latitude     *float64   `json:"latitude"  validate:"omitempty,latitude"`
	Longitude    *float64   `json:"longitude" validate:"omitempty,longitude"`
}

type reportResponse struct {
	ID           string    `json:"id"`
	StationID    string    `json:"stationId"`
	StationName  string    `json:"stationName,omitempty"`
	VisitDate    time.Time `json:"visitDate"`
	Observations string    `json:"observations,omitempty"`
	Activities   string    `json:"activities,omitempty"`
	Status       string    `json:"status"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	UserID       string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type statusCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type reportStatsResponse struct {
	TotalReports    int64                 `json:"totalReports"`
	ReportsByStatus []statusCountResponse `json:"reportsByStatus"`
	RecentReports   []reportResponse      `json:"recentReports"`
}
