package handler

import (
	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createReportRequest) ports.CreateReportInput {
	return ports.CreateReportInput{
		StationID:    req.StationID,
		StationName:  req.StationName,
		VisitDate:    req.VisitDate,
		Observations: req.Observations,
		Activities:   req.Activities,
		Status:       req.Status,
		Location:     toCoordinates(req.Latitude, req.Longitude),
	}
}

func toReportUpdate(req updateReportRequest) ports.ReportUpdate {
	upd := ports.ReportUpdate{
		StationName:  req.StationName,
		VisitDate:    req.VisitDate,
		Observations: req.Observations,
		Activities:   req.Activities,
		Location:     toCoordinates(req.Latitude, req.Longitude),
	}
	if req.Status != nil {
		s := domain.ReportStatus(*req.Status)
		upd.Status = &s
	}
	return upd
}

func toCoordinates(lat, lng *float64) *domain.Coordinates {
	if lat == nil || lng == nil {
		return nil
	}
	return &domain.Coordinates{Lat: *lat, Lng: *lng}
}

// --- Service result → HTTP response ---

func toReportResponse(r *domain.Report) reportResponse {
	resp := reportResponse{
		ID:           r.ID,
		StationID:    r.StationID,
		StationName:  r.StationName,
		VisitDate:    r.VisitDate.UTC(),
		Observations: r.Observations,
		Activities:   r.Activities,
		Status:       string(r.Status),
		UserID:       r.UserID,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.Location != nil {
		lat, lng := r.Location.Lat, r.Location.Lng
		resp.Latitude = &lat
		resp.Longitude = &lng
	}
	return resp
}

func toReportResponses(items []*domain.Report) []reportResponse {
	out := make([]reportResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toReportResponse(r))
	}
	return out
}

func toStatsResponse(s *domain.ReportStats) reportStatsResponse {
	byStatus := make([]statusCountResponse, 0, len(s.ByStatus))
	for _, sc := range s.ByStatus {
		byStatus = append(byStatus, statusCountResponse{Status: string(sc.Status), Count: sc.Count})
	}
	return reportStatsResponse{
		TotalReports:    s.Total,
		ReportsByStatus: byStatus,
		RecentReports:   toReportResponses(s.Recent),
	}
}
