package documents

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("document not found")

// MetadataUpdate is a partial update: nil fields are left untouched.
type MetadataUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Tags        *[]string
	IsPublic    *bool
}

// CategoryCount is one bucket of the category group-by.
type CategoryCount struct {
	Category string `bson:"_id" json:"_id"`
	Count    int64  `bson:"count" json:"count"`
}

// Stats aggregates the non-deleted registry.
type Stats struct {
	TotalDocuments    int64           `json:"totalDocuments"`
	ActiveDocuments   int64           `json:"activeDocuments"`
	ArchivedDocuments int64           `json:"archivedDocuments"`
	CategoryStats     []CategoryCount `json:"categoryStats"`
	RecentUploads     []*Document     `json:"recentUploads"`
	TotalSize         int64           `json:"totalSize"`
}

// MonthBucket is one row of the group-by-year-month aggregate.
type MonthBucket struct {
	Year      int
	Month     int // 1-12
	Uploads   int64
	TotalSize int64
}

// Repository defines persistence operations for the document registry.
// MongoRepository is the production implementation; MemoryRepository backs
// unit tests.
type Repository interface {
	Insert(ctx context.Context, d *Document) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Document, error)
	Find(ctx context.Context, f ListFilter, o ListOptions) ([]*Document, error)
	Count(ctx context.Context, f ListFilter) (int64, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, upd MetadataUpdate) (*Document, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*Document, error)
	SetStatusWhere(ctx context.Context, f ListFilter, status string) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementDownloads(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context) (*Stats, error)
	MonthlyBuckets(ctx context.Context, from, to time.Time) ([]MonthBucket, error)
}
