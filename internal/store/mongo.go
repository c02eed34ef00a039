package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"notekeeper/internal/identity"
	"notekeeper/internal/model"
)

type mongoNote struct {
	ID        string             `bson:"_id"`
	Seq       primitive.ObjectID `bson:"seq"`
	Owner     string             `bson:"owner"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt *time.Time         `bson:"updated_at,omitempty"`
	Tags      []string           `bson:"tags"`
	Archived  bool               `bson:"archived"`
	Favorite  bool               `bson:"favorite"`
}

func (d mongoNote) toNote() model.Note {
	n := model.Note{
		ID:        d.ID,
		Owner:     identity.Principal(d.Owner),
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt.UTC(),
		Tags:      nonNil(d.Tags),
		Archived:  d.Archived,
		Favorite:  d.Favorite,
	}
	if d.UpdatedAt != nil {
		u := d.UpdatedAt.UTC()
		n.UpdatedAt = &u
	}
	return n
}

// Mongo keeps one document per note with _id set to the note id. The seq
// ObjectID is assigned on first insert only and orders Values.
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: db.Collection("notes")}
}

// EnsureIndexes creates necessary indexes for the notes collection
func (r *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "seq", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "owner", Value: 1},
				{Key: "seq", Value: 1},
			},
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (r *Mongo) Get(ctx context.Context, id string) (model.Note, error) {
	var doc mongoNote
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Note{}, ErrNotFound
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("find note %s: %w", id, err)
	}
	return doc.toNote(), nil
}

func (r *Mongo) Put(ctx context.Context, n model.Note) error {
	set := bson.M{
		"owner":      string(n.Owner),
		"title":      n.Title,
		"content":    n.Content,
		"created_at": n.CreatedAt,
		"tags":       nonNil(n.Tags),
		"archived":   n.Archived,
		"favorite":   n.Favorite,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"seq": primitive.NewObjectID()},
	}
	if n.UpdatedAt != nil {
		set["updated_at"] = *n.UpdatedAt
	} else {
		update["$unset"] = bson.M{"updated_at": ""}
	}

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": n.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert note %s: %w", n.ID, err)
	}
	return nil
}

func (r *Mongo) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Mongo) Values(ctx context.Context) ([]model.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoNote
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}

	notes := make([]model.Note, len(docs))
	for i, d := range docs {
		notes[i] = d.toNote()
	}
	return notes, nil
}

func (r *Mongo) Close(ctx context.Context) error {
	return r.coll.Database().Client().Disconnect(ctx)
}
