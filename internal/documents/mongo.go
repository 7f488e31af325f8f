package documents

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository against the documents collection.
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates the repository and ensures the lookup indexes.
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "uploadedBy", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, d *Document) error {
	now := time.Now().UTC()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, d)
	return err
}

func (r *MongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Document, error) {
	var d Document
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *MongoRepository) Find(ctx context.Context, f ListFilter, o ListOptions) ([]*Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: o.sortField(), Value: o.sortDir()}}).
		SetSkip(o.Skip)
	if o.Limit > 0 {
		opts.SetLimit(o.Limit)
	}
	cur, err := r.col.Find(ctx, f.Query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Document{}
	for cur.Next(ctx) {
		var d Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (r *MongoRepository) Count(ctx context.Context, f ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, f.Query())
}

func (r *MongoRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, upd MetadataUpdate) (*Document, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Tags != nil {
		set["tags"] = *upd.Tags
	}
	if upd.IsPublic != nil {
		set["isPublic"] = *upd.IsPublic
	}
	return r.findAndSet(ctx, id, set)
}

func (r *MongoRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*Document, error) {
	return r.findAndSet(ctx, id, bson.M{"status": status, "updatedAt": time.Now().UTC()})
}

func (r *MongoRepository) findAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*Document, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d Document
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// SetStatusWhere bulk-updates every document matching the filter and returns
// the modified count.
func (r *MongoRepository) SetStatusWhere(ctx context.Context, f ListFilter, status string) (int64, error) {
	res, err := r.col.UpdateMany(ctx, f.Query(), bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementDownloads relies on Mongo's atomic $inc; concurrent downloads each
// count exactly once.
func (r *MongoRepository) IncrementDownloads(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"downloadCount": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Stats(ctx context.Context) (*Stats, error) {
	notDeleted := bson.M{"status": bson.M{"$ne": StatusDeleted}}

	total, err := r.col.CountDocuments(ctx, notDeleted)
	if err != nil {
		return nil, err
	}
	active, err := r.col.CountDocuments(ctx, bson.M{"status": StatusActive})
	if err != nil {
		return nil, err
	}
	archived, err := r.col.CountDocuments(ctx, bson.M{"status": StatusArchived})
	if err != nil {
		return nil, err
	}

	categories := []CategoryCount{}
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: notDeleted}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	})
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &categories); err != nil {
		return nil, err
	}

	recent, err := r.Find(ctx, ListFilter{ExcludeDeleted: true}, ListOptions{Limit: 10, SortBy: "createdAt", SortOrder: -1})
	if err != nil {
		return nil, err
	}

	var sizeRow []struct {
		TotalSize int64 `bson:"totalSize"`
	}
	cur, err = r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: notDeleted}},
		{{Key: "$group", Value: bson.M{"_id": nil, "totalSize": bson.M{"$sum": "$size"}}}},
	})
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &sizeRow); err != nil {
		return nil, err
	}
	var totalSize int64
	if len(sizeRow) > 0 {
		totalSize = sizeRow[0].TotalSize
	}

	return &Stats{
		TotalDocuments:    total,
		ActiveDocuments:   active,
		ArchivedDocuments: archived,
		CategoryStats:     categories,
		RecentUploads:     recent,
		TotalSize:         totalSize,
	}, nil
}

func (r *MongoRepository) MonthlyBuckets(ctx context.Context, from, to time.Time) ([]MonthBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":    bson.M{"$ne": StatusDeleted},
			"createdAt": bson.M{"$gte": from, "$lte": to},
		}}},
		{{Key: "$project", Value: bson.M{
			"year":  bson.M{"$year": "$createdAt"},
			"month": bson.M{"$month": "$createdAt"},
			"size":  "$size",
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":       bson.M{"year": "$year", "month": "$month"},
			"uploads":   bson.M{"$sum": 1},
			"totalSize": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$size", 0}}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id.year": 1, "_id.month": 1}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []MonthBucket{}
	for cur.Next(ctx) {
		var row struct {
			ID struct {
				Year  int `bson:"year"`
				Month int `bson:"month"`
			} `bson:"_id"`
			Uploads   int64 `bson:"uploads"`
			TotalSize int64 `bson:"totalSize"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, MonthBucket{Year: row.ID.Year, Month: row.ID.Month, Uploads: row.Uploads, TotalSize: row.TotalSize})
	}
	return out, cur.Err()
}
