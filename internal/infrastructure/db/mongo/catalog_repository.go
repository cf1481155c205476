package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

// CatalogRepository stores books or playlists. Both collections share a
// shape and differ in the name of the link field.
type CatalogRepository struct {
	col       *mongo.Collection
	kind      domain.CatalogKind
	linkField string
}

func NewBookRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{col: db.Collection("books"), kind: domain.KindBook, linkField: "bookLink"}
}

func NewPlaylistRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{col: db.Collection("playlists"), kind: domain.KindPlaylist, linkField: "playlistLink"}
}

// catalogDoc decodes either collection; only one link field is ever set.
type catalogDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description"`
	ThumbnailLink string             `bson:"thumbnailLink"`
	BookLink      string             `bson:"bookLink,omitempty"`
	PlaylistLink  string             `bson:"playlistLink,omitempty"`
	UserID        primitive.ObjectID `bson:"userId"`
	CreatedAt     primitive.DateTime `bson:"createdAt"`
	UpdatedAt     primitive.DateTime `bson:"updatedAt"`
}

func (r *CatalogRepository) toDomain(d *catalogDoc) *domain.CatalogItem {
	link := d.BookLink
	if r.kind == domain.KindPlaylist {
		link = d.PlaylistLink
	}
	return &domain.CatalogItem{
		ID:            d.ID.Hex(),
		Kind:          r.kind,
		Title:         d.Title,
		Description:   d.Description,
		ThumbnailLink: d.ThumbnailLink,
		Link:          link,
		UserID:        hexOrEmpty(d.UserID),
		CreatedAt:     d.CreatedAt.Time().UTC(),
		UpdatedAt:     d.UpdatedAt.Time().UTC(),
	}
}

// catalogQuery turns a listing filter into a Mongo filter and find options.
func catalogQuery(filter ports.CatalogFilter, page ports.Page) (bson.M, *options.FindOptions, bool) {
	q := bson.M{}
	if filter.OwnerID != "" {
		oid, ok := objectID(filter.OwnerID)
		if !ok {
			return nil, nil, false
		}
		q["userId"] = oid
	}
	if filter.TitleSearch != "" {
		q["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.TitleSearch), Options: "i"}
	}

	order := -1
	if filter.OldestFirst {
		order = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: order}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))
	return q, opts, true
}

func (r *CatalogRepository) FindByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrCatalogNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc catalogDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCatalogNotFound
		}
		return nil, fmt.Errorf("find %s: %w", r.kind, err)
	}
	return r.toDomain(&doc), nil
}

func (r *CatalogRepository) List(ctx context.Context, filter ports.CatalogFilter, page ports.Page) ([]*domain.CatalogItem, error) {
	q, opts, ok := catalogQuery(filter, page)
	if !ok {
		return []*domain.CatalogItem{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", r.kind, err)
	}
	defer cur.Close(ctx)

	var docs []catalogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %ss: %w", r.kind, err)
	}

	out := make([]*domain.CatalogItem, 0, len(docs))
	for i := range docs {
		out = append(out, r.toDomain(&docs[i]))
	}
	return out, nil
}

func (r *CatalogRepository) fields(item *domain.CatalogItem) bson.M {
	return bson.M{
		"title":         item.Title,
		"description":   item.Description,
		"thumbnailLink": item.ThumbnailLink,
		r.linkField:     item.Link,
		"updatedAt":     primitive.NewDateTimeFromTime(item.UpdatedAt),
	}
}

func (r *CatalogRepository) Create(ctx context.Context, item *domain.CatalogItem) (*domain.CatalogItem, error) {
	owner, ok := objectID(item.UserID)
	if !ok {
		return nil, fmt.Errorf("insert %s: malformed user id %q", r.kind, item.UserID)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := r.fields(item)
	doc["userId"] = owner
	doc["createdAt"] = primitive.NewDateTimeFromTime(item.CreatedAt)

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", r.kind, err)
	}

	created := *item
	created.Kind = r.kind
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *CatalogRepository) Update(ctx context.Context, item *domain.CatalogItem) error {
	oid, ok := objectID(item.ID)
	if !ok {
		return domain.ErrCatalogNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": r.fields(item)})
	if err != nil {
		return fmt.Errorf("update %s: %w", r.kind, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCatalogNotFound
	}
	return nil
}

func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrCatalogNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.kind, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCatalogNotFound
	}
	return nil
}

// EnsureIndexes creates the owner and title indexes.
func (r *CatalogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
