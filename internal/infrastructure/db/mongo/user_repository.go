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

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

const collectionUsers = "users"

// Hidden fields, loaded only through an explicit projection.
const (
	fieldPassword                 = "password"
	fieldVerificationCode         = "verificationCode"
	fieldVerificationCodeIssued   = "verificationCodeValidation"
	fieldForgotPasswordCode       = "forgotPasswordCode"
	fieldForgotPasswordCodeIssued = "forgotPasswordCodeValidation"
)

// UserRepository implements ports.UserRepository using MongoDB.
type UserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers), now: time.Now}
}

// userDoc is the stored user. Code issuance times are unix milliseconds.
type userDoc struct {
	ID                           primitive.ObjectID   `bson:"_id,omitempty"`
	FirstName                    string               `bson:"firstName"`
	LastName                     string               `bson:"lastName"`
	Birthday                     time.Time            `bson:"birthday"`
	Gender                       string               `bson:"gender"`
	Email                        string               `bson:"email"`
	Password                     string               `bson:"password,omitempty"`
	ProfilePicture               string               `bson:"profilePicture"`
	CoverPicture                 string               `bson:"coverPicture"`
	Points                       int                  `bson:"points"`
	About                        string               `bson:"about,omitempty"`
	Role                         string               `bson:"role"`
	Verified                     bool                 `bson:"verified"`
	VerificationCode             string               `bson:"verificationCode,omitempty"`
	VerificationCodeValidation   int64                `bson:"verificationCodeValidation,omitempty"`
	ForgotPasswordCode           string               `bson:"forgotPasswordCode,omitempty"`
	ForgotPasswordCodeValidation int64                `bson:"forgotPasswordCodeValidation,omitempty"`
	Following                    []primitive.ObjectID `bson:"following"`
	Followers                    []primitive.ObjectID `bson:"followers"`
	CreatedAt                    time.Time            `bson:"createdAt"`
	UpdatedAt                    time.Time            `bson:"updatedAt"`
}

// slotFromDoc rebuilds a code slot. A digest without its timestamp, or the
// reverse, is treated as no code at all.
func slotFromDoc(digest string, issuedMillis int64) domain.CodeSlot {
	if digest == "" || issuedMillis == 0 {
		return domain.ClearedCode()
	}
	return domain.IssuedCode(digest, time.UnixMilli(issuedMillis).UTC())
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:                 d.ID.Hex(),
		FirstName:          d.FirstName,
		LastName:           d.LastName,
		Birthday:           d.Birthday,
		Gender:             domain.Gender(d.Gender),
		Email:              d.Email,
		PasswordHash:       d.Password,
		ProfilePicture:     d.ProfilePicture,
		CoverPicture:       d.CoverPicture,
		Points:             d.Points,
		About:              d.About,
		Role:               domain.Role(d.Role),
		Verified:           d.Verified,
		VerificationCode:   slotFromDoc(d.VerificationCode, d.VerificationCodeValidation),
		ForgotPasswordCode: slotFromDoc(d.ForgotPasswordCode, d.ForgotPasswordCodeValidation),
		Following:          hexes(d.Following),
		Followers:          hexes(d.Followers),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// hiddenProjection excludes every credential field proj does not ask for.
func hiddenProjection(proj ports.Projection) bson.M {
	out := bson.M{}
	if !proj.Has(ports.WithPassword) {
		out[fieldPassword] = 0
	}
	if !proj.Has(ports.WithVerificationCode) {
		out[fieldVerificationCode] = 0
		out[fieldVerificationCodeIssued] = 0
	}
	if !proj.Has(ports.WithForgotPasswordCode) {
		out[fieldForgotPasswordCode] = 0
		out[fieldForgotPasswordCodeIssued] = 0
	}
	return out
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, proj ports.Projection) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne()
	if p := hiddenProjection(proj); len(p) > 0 {
		opts.SetProjection(p)
	}

	var doc userDoc
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string, proj ports.Projection) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, proj)
}

func (r *UserRepository) FindByID(ctx context.Context, id string, proj ports.Projection) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, proj)
}

// Create inserts user. A taken email maps to domain.ErrUserExists through
// the unique index.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Birthday:       user.Birthday,
		Gender:         string(user.Gender),
		Email:          user.Email,
		Password:       user.PasswordHash,
		ProfilePicture: user.ProfilePicture,
		CoverPicture:   user.CoverPicture,
		Points:         user.Points,
		About:          user.About,
		Role:           string(user.Role),
		Verified:       user.Verified,
		Following:      []primitive.ObjectID{},
		Followers:      []primitive.ObjectID{},
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

// slotUpdate writes or removes a digest and its timestamp in one update.
func slotUpdate(digestField, issuedField string, slot domain.CodeSlot, now time.Time) bson.M {
	digest, issuedAt, ok := slot.Get()
	if !ok {
		return bson.M{
			"$unset": bson.M{digestField: "", issuedField: ""},
			"$set":   bson.M{"updatedAt": now},
		}
	}
	return bson.M{"$set": bson.M{
		digestField: digest,
		issuedField: issuedAt.UnixMilli(),
		"updatedAt": now,
	}}
}

func (r *UserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	_, err := r.updateOne(ctx, id, update)
	return err
}

// updateOne applies update and reports whether the document changed.
func (r *UserRepository) updateOne(ctx context.Context, id string, update bson.M) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return false, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, domain.ErrUserNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (r *UserRepository) SetVerificationCode(ctx context.Context, id string, slot domain.CodeSlot) error {
	return r.updateByID(ctx, id, slotUpdate(fieldVerificationCode, fieldVerificationCodeIssued, slot, r.now().UTC()))
}

func (r *UserRepository) SetForgotPasswordCode(ctx context.Context, id string, slot domain.CodeSlot) error {
	return r.updateByID(ctx, id, slotUpdate(fieldForgotPasswordCode, fieldForgotPasswordCodeIssued, slot, r.now().UTC()))
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"verified": true, "updatedAt": r.now().UTC()},
		"$unset": bson.M{fieldVerificationCode: "", fieldVerificationCodeIssued: ""},
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{fieldPassword: passwordHash, "updatedAt": r.now().UTC()},
	})
}

func (r *UserRepository) ResetPassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{fieldPassword: passwordHash, "updatedAt": r.now().UTC()},
		"$unset": bson.M{fieldForgotPasswordCode: "", fieldForgotPasswordCodeIssued: ""},
	})
}

func (r *UserRepository) AddPoints(ctx context.Context, id string, delta int) error {
	return r.updateByID(ctx, id, bson.M{"$inc": bson.M{"points": delta}})
}

// userQuery builds the filter and paging options for List.
func userQuery(filter ports.UserFilter, page ports.Page) (bson.M, *options.FindOptions) {
	q := bson.M{}
	if filter.Role != "" {
		q["role"] = string(filter.Role)
	}
	opts := options.Find().
		SetProjection(hiddenProjection(0)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))
	return q, opts
}

func (r *UserRepository) List(ctx context.Context, filter ports.UserFilter, page ports.Page) ([]*domain.User, error) {
	q, opts := userQuery(filter, page)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// followUpdate adds or pulls other in one of the follow arrays. updatedAt is
// left alone so ModifiedCount reports whether the set changed.
func followUpdate(op, field string, other primitive.ObjectID) bson.M {
	return bson.M{op: bson.M{field: other}}
}

func (r *UserRepository) follow(ctx context.Context, op, field, id, otherID string) (bool, error) {
	other, ok := objectID(otherID)
	if !ok {
		if _, err := r.FindByID(ctx, id, 0); err != nil {
			return false, err
		}
		return false, nil
	}
	return r.updateOne(ctx, id, followUpdate(op, field, other))
}

// AddFollowing reports false when id already follows targetID.
func (r *UserRepository) AddFollowing(ctx context.Context, id, targetID string) (bool, error) {
	return r.follow(ctx, "$addToSet", "following", id, targetID)
}

// RemoveFollowing reports false when id did not follow targetID.
func (r *UserRepository) RemoveFollowing(ctx context.Context, id, targetID string) (bool, error) {
	return r.follow(ctx, "$pull", "following", id, targetID)
}

func (r *UserRepository) AddFollower(ctx context.Context, id, followerID string) error {
	_, err := r.follow(ctx, "$addToSet", "followers", id, followerID)
	return err
}

func (r *UserRepository) RemoveFollower(ctx context.Context, id, followerID string) error {
	_, err := r.follow(ctx, "$pull", "followers", id, followerID)
	return err
}

// EnsureIndexes makes email unique.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
