package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

const collectionReports = "reports"

type ReportRepository struct {
	col *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{col: db.Collection(collectionReports)}
}

type mongoReport struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	StationID    string              `bson:"station_id"`
	StationName  string              `bson:"station_name,omitempty"`
	VisitDate    time.Time           `bson:"visit_date"`
	Observations string              `bson:"observations,omitempty"`
	Activities   string              `bson:"activities,omitempty"`
	Status       domain.ReportStatus `bson:"status"`
	Location     *domain.Coordinates `bson:"location,omitempty"`
	UserID       string              `bson:"user_id"`
	CreatedAt    time.Time           `bson:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at"`
}

func fromReport(r *domain.Report) mongoReport {
	return mongoReport{
		StationID:    r.StationID,
		StationName:  r.StationName,
		VisitDate:    r.VisitDate,
		Observations: r.Observations,
		Activities:   r.Activities,
		Status:       r.Status,
		Location:     r.Location,
		UserID:       r.UserID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (m mongoReport) toDomain() *domain.Report {
	return &domain.Report{
		ID:           m.ID.Hex(),
		StationID:    m.StationID,
		StationName:  m.StationName,
		VisitDate:    m.VisitDate.UTC(),
		Observations: m.Observations,
		Activities:   m.Activities,
		Status:       m.Status,
		Location:     m.Location,
		UserID:       m.UserID,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

// Create inserts a new report document.
func (r *ReportRepository) Create(ctx context.Context, rep *domain.Report) (*domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := fromReport(rep)
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// FindByID retrieves a report. Malformed ids are reported as not found.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*domain.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrReportNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoReport
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// List returns the reports matching filter, newest visit first.
func (r *ReportRepository) List(ctx context.Context, f ports.ListReportsFilter) ([]*domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "visit_date", Value: -1}})
	return r.find(ctx, listFilter(f), opts)
}

func listFilter(f ports.ListReportsFilter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.StationID != "" {
		filter["station_id"] = f.StationID
	}
	dates := bson.M{}
	if !f.From.IsZero() {
		dates["$gte"] = f.From
	}
	if !f.To.IsZero() {
		dates["$lte"] = f.To
	}
	if len(dates) > 0 {
		filter["visit_date"] = dates
	}
	return filter
}

// Update applies the non-nil fields of upd and returns the updated document.
func (r *ReportRepository) Update(ctx context.Context, id string, upd ports.ReportUpdate, at time.Time) (*domain.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrReportNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": at}
	if upd.StationName != nil {
		set["station_name"] = *upd.StationName
	}
	if upd.VisitDate != nil {
		set["visit_date"] = upd.VisitDate.UTC()
	}
	if upd.Observations != nil {
		set["observations"] = *upd.Observations
	}
	if upd.Activities != nil {
		set["activities"] = *upd.Activities
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Location != nil {
		set["location"] = upd.Location
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoReport
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrReportNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

// Stats counts reports, groups them by status and loads the most recent ones.
func (r *ReportRepository) Stats(ctx context.Context, recent int) (*domain.ReportStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate reports: %w", err)
	}
	byStatus := []domain.StatusCount{}
	if err := cur.All(ctx, &byStatus); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(recent))
	latest, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	return &domain.ReportStats{Total: total, ByStatus: byStatus, Recent: latest}, nil
}

func (r *ReportRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Report, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cur.Close(ctx)

	out := []*domain.Report{}
	for cur.Next(ctx) {
		var doc mongoReport
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

// EnsureIndexes creates necessary indexes on the reports collection.
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "visit_date", Value: -1}}},
		{Keys: bson.D{{Key: "station_id", Value: 1}}},
		{Keys: bson.D{{Key: "visit_date", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
