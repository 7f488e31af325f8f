package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository mirrors MongoRepository semantics in memory. Unit tests use
// it in place of a live database.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[primitive.ObjectID]*Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[primitive.ObjectID]*Document)}
}

func (f ListFilter) matches(d *Document) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Status == "" && f.ExcludeDeleted && d.Status == StatusDeleted {
		return false
	}
	if f.Category != "" && d.Category != f.Category {
		return false
	}
	if !f.UploadedBy.IsZero() && d.UploadedBy != f.UploadedBy {
		return false
	}
	if len(f.IDs) > 0 {
		found := false
		for _, id := range f.IDs {
			if d.ID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		s := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(d.Title), s) &&
			!strings.Contains(strings.ToLower(d.Description), s) &&
			!strings.Contains(strings.ToLower(d.OriginalName), s) {
			return false
		}
	}
	return true
}

func (r *MemoryRepository) Insert(ctx context.Context, d *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := *d
	r.store[d.ID] = &cp
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.store[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Find(ctx context.Context, f ListFilter, o ListOptions) ([]*Document, error) {
	r.mu.RLock()
	matched := []*Document{}
	for _, d := range r.store {
		if f.matches(d) {
			cp := *d
			matched = append(matched, &cp)
		}
	}
	r.mu.RUnlock()

	sortDocuments(matched, o.sortField(), o.sortDir())

	if o.Skip >= int64(len(matched)) {
		return []*Document{}, nil
	}
	matched = matched[o.Skip:]
	if o.Limit > 0 && o.Limit < int64(len(matched)) {
		matched = matched[:o.Limit]
	}
	return matched, nil
}

func sortDocuments(docs []*Document, field string, dir int) {
	less := func(a, b *Document) bool {
		switch field {
		case "title":
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case "size":
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		case "downloadCount":
			if a.DownloadCount != b.DownloadCount {
				return a.DownloadCount < b.DownloadCount
			}
		case "originalName":
			if a.OriginalName != b.OriginalName {
				return a.OriginalName < b.OriginalName
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		// stable tiebreak on id keeps pages disjoint
		return a.ID.Hex() < b.ID.Hex()
	}
	sort.Slice(docs, func(i, j int) bool {
		if dir == 1 {
			return less(docs[i], docs[j])
		}
		return less(docs[j], docs[i])
	})
}

func (r *MemoryRepository) Count(ctx context.Context, f ListFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, d := range r.store {
		if f.matches(d) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, upd MetadataUpdate) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		d.Title = *upd.Title
	}
	if upd.Description != nil {
		d.Description = *upd.Description
	}
	if upd.Category != nil {
		d.Category = *upd.Category
	}
	if upd.Tags != nil {
		d.Tags = *upd.Tags
	}
	if upd.IsPublic != nil {
		d.IsPublic = *upd.IsPublic
	}
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	return &cp, nil
}

func (r *MemoryRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Status = status
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	return &cp, nil
}

func (r *MemoryRepository) SetStatusWhere(ctx context.Context, f ListFilter, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.store {
		if f.matches(d) && d.Status != status {
			d.Status = status
			d.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return ErrNotFound
	}
	delete(r.store, id)
	return nil
}

func (r *MemoryRepository) IncrementDownloads(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.store[id]
	if !ok {
		return ErrNotFound
	}
	d.DownloadCount++
	return nil
}

func (r *MemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	notDeleted := ListFilter{ExcludeDeleted: true}
	total, _ := r.Count(ctx, notDeleted)
	active, _ := r.Count(ctx, ListFilter{Status: StatusActive})
	archived, _ := r.Count(ctx, ListFilter{Status: StatusArchived})

	r.mu.RLock()
	byCategory := map[string]int64{}
	var totalSize int64
	for _, d := range r.store {
		if d.Status == StatusDeleted {
			continue
		}
		byCategory[d.Category]++
		totalSize += d.Size
	}
	r.mu.RUnlock()

	categories := make([]CategoryCount, 0, len(byCategory))
	for c, n := range byCategory {
		categories = append(categories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Category < categories[j].Category
	})

	recent, err := r.Find(ctx, notDeleted, ListOptions{Limit: 10, SortBy: "createdAt", SortOrder: -1})
	if err != nil {
		return nil, err
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

func (r *MemoryRepository) MonthlyBuckets(ctx context.Context, from, to time.Time) ([]MonthBucket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	type key struct{ year, month int }
	buckets := map[key]*MonthBucket{}
	for _, d := range r.store {
		if d.Status == StatusDeleted || d.CreatedAt.Before(from) || d.CreatedAt.After(to) {
			continue
		}
		k := key{d.CreatedAt.Year(), int(d.CreatedAt.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &MonthBucket{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		b.Uploads++
		b.TotalSize += d.Size
	}
	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}
