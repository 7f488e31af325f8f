package documents

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListFilter is the typed query over the document registry. Zero values mean
// "no constraint"; Query() translates it into the Mongo filter document.
type ListFilter struct {
	Status         string
	ExcludeDeleted bool
	Category       string
	UploadedBy     primitive.ObjectID
	IDs            []primitive.ObjectID
	Search         string
}

// Query builds the bson filter equivalent of the typed filter.
func (f ListFilter) Query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	} else if f.ExcludeDeleted {
		q["status"] = bson.M{"$ne": StatusDeleted}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if !f.UploadedBy.IsZero() {
		q["uploadedBy"] = f.UploadedBy
	}
	if len(f.IDs) > 0 {
		q["_id"] = bson.M{"$in": f.IDs}
	}
	if f.Search != "" {
		rx := bson.M{"$regex": f.Search, "$options": "i"}
		q["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"originalName": rx},
		}
	}
	return q
}

// ListOptions controls sorting and pagination of Find.
type ListOptions struct {
	Skip      int64
	Limit     int64
	SortBy    string
	SortOrder int // 1 ascending, -1 descending
}

func (o ListOptions) sortField() string {
	if o.SortBy == "" {
		return "createdAt"
	}
	return o.SortBy
}

func (o ListOptions) sortDir() int {
	if o.SortOrder == 1 {
		return 1
	}
	return -1
}
