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

const collectionComments = "comments"

// CommentRepository implements ports.CommentRepository using MongoDB.
type CommentRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{col: db.Collection(collectionComments), now: time.Now}
}

type authorDoc struct {
	ID             primitive.ObjectID `bson:"_id"`
	FirstName      string             `bson:"firstName"`
	LastName       string             `bson:"lastName"`
	ProfilePicture string             `bson:"profilePicture"`
}

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Body      string             `bson:"commentBody,omitempty"`
	Picture   string             `bson:"commentPicture,omitempty"`
	Upvoted   bool               `bson:"upvoted"`
	UpvotedBy primitive.ObjectID `bson:"upvotedBy,omitempty"`
	PostID    primitive.ObjectID `bson:"postId"`
	UserID    primitive.ObjectID `bson:"userId"`
	Author    *authorDoc         `bson:"author,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *commentDoc) toDomain() *domain.Comment {
	c := &domain.Comment{
		ID:        d.ID.Hex(),
		Body:      d.Body,
		Picture:   d.Picture,
		Upvoted:   d.Upvoted,
		UpvotedBy: hexOrEmpty(d.UpvotedBy),
		PostID:    d.PostID.Hex(),
		UserID:    d.UserID.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Author != nil {
		c.Author = &domain.Author{
			ID:             d.Author.ID.Hex(),
			FirstName:      d.Author.FirstName,
			LastName:       d.Author.LastName,
			ProfilePicture: d.Author.ProfilePicture,
		}
	}
	return c
}

// listByPostPipeline pages the comments of a post newest first and joins the
// public fields of each author.
func listByPostPipeline(postID primitive.ObjectID, page ports.Page) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"postId": postID}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$skip", Value: page.Skip()}},
		{{Key: "$limit", Value: int64(page.Size)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionUsers,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"commentBody":           1,
			"commentPicture":        1,
			"upvoted":               1,
			"upvotedBy":             1,
			"postId":                1,
			"userId":                1,
			"createdAt":             1,
			"updatedAt":             1,
			"author._id":            1,
			"author.firstName":      1,
			"author.lastName":       1,
			"author.profilePicture": 1,
		}}},
	}
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string, page ports.Page) ([]*domain.Comment, error) {
	oid, ok := objectID(postID)
	if !ok {
		return []*domain.Comment{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, listByPostPipeline(oid, page))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer cur.Close(ctx)

	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	out := make([]*domain.Comment, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrCommentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc commentDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	postID, ok := objectID(c.PostID)
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	userID, ok := objectID(c.UserID)
	if !ok {
		return nil, fmt.Errorf("insert comment: malformed user id %q", c.UserID)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := commentDoc{
		Body:      c.Body,
		Picture:   c.Picture,
		PostID:    postID,
		UserID:    userID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	created := *c
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *CommentRepository) UpdateBody(ctx context.Context, id, body string) (*domain.Comment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrCommentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"commentBody": body, "updatedAt": r.now().UTC()}}

	var doc commentDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrCommentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// upvoteUpdate sets the upvoter, or clears the upvote when upvotedBy is empty.
func upvoteUpdate(upvotedBy primitive.ObjectID, now time.Time) bson.M {
	if upvotedBy.IsZero() {
		return bson.M{
			"$set":   bson.M{"upvoted": false, "updatedAt": now},
			"$unset": bson.M{"upvotedBy": ""},
		}
	}
	return bson.M{"$set": bson.M{"upvoted": true, "upvotedBy": upvotedBy, "updatedAt": now}}
}

func (r *CommentRepository) SetUpvote(ctx context.Context, id, upvotedBy string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrCommentNotFound
	}
	voter := primitive.NilObjectID
	if upvotedBy != "" {
		if voter, ok = objectID(upvotedBy); !ok {
			return fmt.Errorf("set upvote: malformed user id %q", upvotedBy)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, upvoteUpdate(voter, r.now().UTC()))
	if err != nil {
		return fmt.Errorf("set upvote: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// EnsureIndexes creates the lookup indexes on the comments collection.
func (r *CommentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "upvotedBy", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
