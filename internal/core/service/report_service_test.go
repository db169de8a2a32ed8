package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubReportRepo struct {
	byID       map[string]*domain.Report
	nextID     int
	lastFilter ports.ListReportsFilter
	createErr  error
}

func newStubReportRepo() *stubReportRepo {
	return &stubReportRepo{byID: make(map[string]*domain.Report)}
}

func (r *stubReportRepo) Create(_ context.Context, rep *domain.Report) (*domain.Report, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	clone := *rep
	clone.ID = "r-" + strconv.Itoa(r.nextID)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubReportRepo) FindByID(_ context.Context, id string) (*domain.Report, error) {
	rep, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	clone := *rep
	return &clone, nil
}

// List applies the same filters the real Mongo repo would use.
func (r *stubReportRepo) List(_ context.Context, f ports.ListReportsFilter) ([]*domain.Report, error) {
	r.lastFilter = f
	var out []*domain.Report
	for _, rep := range r.byID {
		if f.UserID != "" && rep.UserID != f.UserID {
			continue
		}
		if f.StationID != "" && rep.StationID != f.StationID {
			continue
		}
		if !f.From.IsZero() && rep.VisitDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && rep.VisitDate.After(f.To) {
			continue
		}
		clone := *rep
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	return out, nil
}

func (r *stubReportRepo) Update(_ context.Context, id string, upd ports.ReportUpdate, at time.Time) (*domain.Report, error) {
	rep, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	if upd.Status != nil {
		rep.Status = *upd.Status
	}
	if upd.Observations != nil {
		rep.Observations = *upd.Observations
	}
	rep.UpdatedAt = at
	clone := *rep
	return &clone, nil
}

func (r *stubReportRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrReportNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubReportRepo) Stats(_ context.Context, recent int) (*domain.ReportStats, error) {
	counts := map[domain.ReportStatus]int64{}
	for _, rep := range r.byID {
		counts[rep.Status]++
	}
	stats := &domain.ReportStats{Total: int64(len(r.byID))}
	for s, n := range counts {
		stats.ByStatus = append(stats.ByStatus, domain.StatusCount{Status: s, Count: n})
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	alice = &domain.Principal{ID: "alice", Role: domain.RoleUser, IsActive: true}
	bob   = &domain.Principal{ID: "bob", Role: domain.RoleUser, IsActive: true}
	root  = &domain.Principal{ID: "root", Role: domain.RoleAdmin, IsActive: true}
)

func seedReports(t *testing.T, svc *ReportService) {
	t.Helper()
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	inputs := []struct {
		actor   *domain.Principal
		station string
		offset  int
	}{
		{alice, "ST-1", 0},
		{alice, "ST-2", 1},
		{bob, "ST-1", 2},
	}
	for _, in := range inputs {
		_, err := svc.Create(context.Background(), in.actor, ports.CreateReportInput{
			StationID: in.station,
			VisitDate: day.AddDate(0, 0, in.offset),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestReportService_Create_OwnedByActor(t *testing.T) {
	repo := newStubReportRepo()
	svc := NewReportService(repo, zerolog.Nop())

	rep, err := svc.Create(context.Background(), alice, ports.CreateReportInput{
		StationID:   "ST-9",
		StationName: "North Ridge",
		VisitDate:   time.Now(),
		Location:    &domain.Coordinates{Lat: 19.4, Lng: -99.1},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rep.UserID != "alice" {
		t.Fatalf("expected owner alice, got %s", rep.UserID)
	}
	if rep.Status != domain.ReportStatusPending {
		t.Fatalf("expected default status, got %s", rep.Status)
	}
	if rep.CreatedAt.IsZero() || rep.Location == nil {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestReportService_Create_Validation(t *testing.T) {
	svc := NewReportService(newStubReportRepo(), zerolog.Nop())
	if _, err := svc.Create(context.Background(), alice, ports.CreateReportInput{VisitDate: time.Now()}); !errors.Is(err, domain.ErrInvalidReport) {
		t.Fatalf("expected ErrInvalidReport without station, got %v", err)
	}
	if _, err := svc.Create(context.Background(), alice, ports.CreateReportInput{StationID: "ST-1"}); !errors.Is(err, domain.ErrInvalidReport) {
		t.Fatalf("expected ErrInvalidReport without visit date, got %v", err)
	}
}

func TestReportService_Create_RepoError(t *testing.T) {
	repo := newStubReportRepo()
	repo.createErr = errors.New("write conflict")
	svc := NewReportService(repo, zerolog.Nop())

	_, err := svc.Create(context.Background(), alice, ports.CreateReportInput{StationID: "ST-1", VisitDate: time.Now()})
	if !errors.Is(err, repo.createErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestReportService_List_ScopedToOwner(t *testing.T) {
	repo := newStubReportRepo()
	svc := NewReportService(repo, zerolog.Nop())
	seedReports(t, svc)

	items, err := svc.List(context.Background(), alice, ports.ListReportsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 own reports, got %d", len(items))
	}
	if repo.lastFilter.UserID != "alice" {
		t.Fatalf("expected owner filter, got %q", repo.lastFilter.UserID)
	}
	if !items[0].VisitDate.After(items[1].VisitDate) {
		t.Fatalf("expected newest first")
	}
}

func TestReportService_List_AdminSeesAll(t *testing.T) {
	repo := newStubReportRepo()
	svc := NewReportService(repo, zerolog.Nop())
	seedReports(t, svc)

	items, _ := svc.List(context.Background(), root, ports.ListReportsInput{})
	if len(items) != 3 {
		t.Fatalf("expected 3 reports for admin, got %d", len(items))
	}
	if repo.lastFilter.UserID != "" {
		t.Fatalf("admin listing must not filter by owner")
	}
}

func TestReportService_List_AllFlag(t *testing.T) {
	svc := NewReportService(newStubReportRepo(), zerolog.Nop())
	seedReports(t, svc)

	items, _ := svc.List(context.Background(), bob, ports.ListReportsInput{All: true})
	if len(items) != 3 {
		t.Fatalf("expected 3 reports with all=true, got %d", len(items))
	}
}

func TestReportService_List_EmptyIsNotNil(t *testing.T) {
	svc := NewReportService(newStubReportRepo(), zerolog.Nop())
	items, err := svc.List(context.Background(), alice, ports.ListReportsInput{})
	if err != nil || items == nil {
		t.Fatalf("expected empty non-nil slice, got %v %v", items, err)
	}
}

func TestReportService_ListByStation(t *testing.T) {
	svc := NewReportService(newStubReportRepo(), zerolog.Nop())
	seedReports(t, svc)

	items, err := svc.ListByStation(context.Background(), alice, "ST-1")
	if err != nil || len(items) != 2 {
		t.Fatalf("expected 2 reports for ST-1, got %d %v", len(items), err)
	}
	if _, err := svc.ListByStation(context.Background(), alice, " "); !errors.Is(err, domain.ErrInvalidReport) {
		t.Fatalf("expected ErrInvalidReport, got %v", err)
	}
}

func TestReportService_ListByDateRange(t *testing.T) {
	svc := NewReportService(newStubReportRepo(), zerolog.Nop())
	seedReports(t, svc)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	items, err := svc.ListByDateRange(context.Background(), root, from, to)
	if err != nil || len(items) != 2 {
		t.Fatalf("expected 2 reports in range, got %d %v", len(items), err)
	}

	if _, err := svc.ListByDateRange(context.Background(), root, to, from); !errors.Is(err, domain.ErrInvalidReport) {
		t.Fatalf("expected ErrInvalidReport for inverted range, got %v", err)
	}
}

func TestReportService_GetUpdateDelete(t *testing.T) {
	repo := newStubReportRepo()
	svc := NewReportService(repo, zerolog.Nop())
	created, _ := svc.Create(context.Background(), alice, ports.CreateReportInput{StationID: "ST-1", VisitDate: time.Now()})

	got, err := svc.Get(context.Background(), alice, created.ID)
	if err != nil || got.ID != created.ID {
		t.Fatalf("get: %+v %v", got, err)
	}

	reviewed := domain.ReportStatusReviewed
	updated, err := svc.Update(context.Background(), alice, created.ID, ports.ReportUpdate{Status: &reviewed})
	if err != nil || updated.Status != reviewed {
		t.Fatalf("update: %+v %v", updated, err)
	}

	if err := svc.Delete(context.Background(), root, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), alice, created.ID); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), root, created.ID); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound on second delete, got %v", err)
	}
}

func TestReportService_Stats(t *testing.T) {
	svc := NewReportService(newStubReportRepo(), zerolog.Nop())
	seedReports(t, svc)

	stats, err := svc.Stats(context.Background(), root)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("expected total 3, got %d", stats.Total)
	}
	if len(stats.ByStatus) != 1 || stats.ByStatus[0].Count != 3 {
		t.Fatalf("unexpected breakdown: %+v", stats.ByStatus)
	}
}
