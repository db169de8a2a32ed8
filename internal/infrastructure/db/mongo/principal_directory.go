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

const authCollection = "auth_users"

var _ ports.PrincipalDirectory = (*PrincipalDirectory)(nil)

// PrincipalDirectory implements ports.PrincipalDirectory on MongoDB.
type PrincipalDirectory struct {
	coll *mongo.Collection
}

func NewPrincipalDirectory(db *mongo.Database) *PrincipalDirectory {
	return &PrincipalDirectory{coll: db.Collection(authCollection)}
}

type mongoPrincipal struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	FirstName    string             `bson:"first_name,omitempty"`
	LastName     string             `bson:"last_name,omitempty"`
	Role         string             `bson:"role"`
	IsActive     bool               `bson:"is_active"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

// EnsureIndexes creates the unique email index that backs duplicate detection.
func (d *PrincipalDirectory) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := d.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (d *PrincipalDirectory) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := mongoPrincipal{
		Email:        domain.NormalizeEmail(p.Email),
		PasswordHash: p.PasswordHash,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Role:         p.Role.String(),
		IsActive:     p.IsActive,
		CreatedAt:    now.Unix(),
		UpdatedAt:    now.Unix(),
	}

	res, err := d.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert principal: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert principal: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain()
}

func (d *PrincipalDirectory) FindByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	return d.findOne(ctx, bson.M{"email": email})
}

func (d *PrincipalDirectory) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPrincipalNotFound
	}
	return d.findOne(ctx, bson.M{"_id": oid})
}

// Update applies the non-nil fields of upd and returns the updated document.
func (d *PrincipalDirectory) Update(ctx context.Context, id string, upd ports.PrincipalUpdate) (*domain.Principal, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPrincipalNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mp mongoPrincipal
	err = d.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": principalSet(upd, time.Now().UTC())}, opts).Decode(&mp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("update principal: %w", err)
	}
	return mp.toDomain()
}

func principalSet(upd ports.PrincipalUpdate, at time.Time) bson.M {
	set := bson.M{"updated_at": at.Unix()}
	if upd.FirstName != nil {
		set["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		set["last_name"] = *upd.LastName
	}
	if upd.Role != nil {
		set["role"] = upd.Role.String()
	}
	if upd.IsActive != nil {
		set["is_active"] = *upd.IsActive
	}
	return set
}

func (d *PrincipalDirectory) findOne(ctx context.Context, filter bson.M) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoPrincipal
	if err := d.coll.FindOne(ctx, filter).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}
	return mp.toDomain()
}

func (mp mongoPrincipal) toDomain() (*domain.Principal, error) {
	role, ok := domain.ParseRole(mp.Role)
	if !ok {
		return nil, fmt.Errorf("principal %s: unknown role %q", mp.ID.Hex(), mp.Role)
	}
	return &domain.Principal{
		ID:           mp.ID.Hex(),
		Email:        mp.Email,
		PasswordHash: mp.PasswordHash,
		FirstName:    mp.FirstName,
		LastName:     mp.LastName,
		Role:         role,
		IsActive:     mp.IsActive,
		CreatedAt:    unixToTime(mp.CreatedAt),
		UpdatedAt:    unixToTime(mp.UpdatedAt),
	}, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
