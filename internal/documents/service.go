package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/docstack/docstack/internal/storage"
	"github.com/docstack/docstack/pkg/logger"
)

var (
	ErrInvalidID           = errors.New("invalid document ID")
	ErrNoFiles             = errors.New("no files uploaded")
	ErrInvalidStatus       = errors.New(`invalid status, must be "active" or "archived"`)
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidBulkCriteria = errors.New("invalid bulk delete criteria")
)

// FileRejectedError reports why an uploaded file failed the allow-list.
// Any rejection aborts the whole batch before a single byte hits storage.
type FileRejectedError struct {
	Name   string
	Reason string
}

func (e *FileRejectedError) Error() string {
	return fmt.Sprintf("file %q rejected: %s", e.Name, e.Reason)
}

var allowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true,
	".ppt": true, ".pptx": true, ".xls": true, ".xlsx": true, ".rtf": true,
}

var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":                    true,
	"application/vnd.ms-powerpoint": true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/rtf": true,
}

const uploadFieldName = "files"

// Service implements document registry operations over a Repository and a
// file Storage backend.
type Service struct {
	repo        Repository
	store       storage.Storage
	maxFileSize int64
	maxFiles    int
}

func NewService(repo Repository, store storage.Storage, maxFileSize int64, maxFiles int) *Service {
	if maxFileSize <= 0 {
		maxFileSize = 50 * 1024 * 1024
	}
	if maxFiles <= 0 {
		maxFiles = 10
	}
	return &Service{repo: repo, store: store, maxFileSize: maxFileSize, maxFiles: maxFiles}
}

// UploadMeta carries shared metadata form fields of an upload request.
// Tags is comma-separated; IsPublic is the string "true" or anything else.
type UploadMeta struct {
	Title       string
	Description string
	Category    string
	Tags        string
	IsPublic    string
}

// Upload validates the whole batch against the allow-list, then writes each
// file to storage and creates one document record per file.
func (s *Service) Upload(ctx context.Context, owner primitive.ObjectID, files []*multipart.FileHeader, meta UploadMeta) ([]*Document, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > s.maxFiles {
		return nil, &FileRejectedError{Name: files[s.maxFiles].Filename, Reason: fmt.Sprintf("too many files, maximum is %d", s.maxFiles)}
	}

	category := meta.Category
	if category == "" {
		category = DefaultCategory
	}
	if !ValidCategory(category) {
		return nil, ErrInvalidCategory
	}

	for _, fh := range files {
		if err := s.validateFile(fh); err != nil {
			return nil, err
		}
	}

	tags := ParseTags(meta.Tags)
	docs := make([]*Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		name := storage.GenerateFilename(uploadFieldName, fh.Filename)
		contentType := fh.Header.Get("Content-Type")
		path, err := s.store.Save(ctx, name, f, fh.Size, contentType)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", fh.Filename, err)
		}

		title := meta.Title
		if title == "" {
			title = fh.Filename
		}
		d := &Document{
			Title:        title,
			Description:  meta.Description,
			Filename:     name,
			OriginalName: fh.Filename,
			MimeType:     contentType,
			Size:         fh.Size,
			Path:         path,
			UploadedBy:   owner,
			Category:     category,
			Tags:         tags,
			Status:       StatusActive,
			IsPublic:     meta.IsPublic == "true",
		}
		if err := s.repo.Insert(ctx, d); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *Service) validateFile(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	mime := fh.Header.Get("Content-Type")
	if !allowedExtensions[ext] || !allowedMimeTypes[mime] {
		return &FileRejectedError{
			Name:   fh.Filename,
			Reason: "unsupported file type, allowed: PDF, DOC, DOCX, TXT, RTF, PPT, PPTX, XLS, XLSX",
		}
	}
	if fh.Size > s.maxFileSize {
		return &FileRejectedError{
			Name:   fh.Filename,
			Reason: fmt.Sprintf("file exceeds the %d byte limit", s.maxFileSize),
		}
	}
	return nil
}

// ParseTags splits a comma-separated tag string, dropping empty entries.
func ParseTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ListParams are the query parameters of the listing endpoint.
type ListParams struct {
	Page      int
	Limit     int
	Category  string
	Status    string
	Search    string
	SortBy    string
	SortOrder string
	UserID    string
}

// Pagination is computed from a separate count query over the same filter.
type Pagination struct {
	CurrentPage    int   `json:"currentPage"`
	TotalPages     int   `json:"totalPages"`
	TotalDocuments int64 `json:"totalDocuments"`
	HasNext        bool  `json:"hasNext"`
	HasPrev        bool  `json:"hasPrev"`
}

// List filters, sorts and paginates the registry.
func (s *Service) List(ctx context.Context, p ListParams) ([]*Document, *Pagination, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	status := p.Status
	if status == "" {
		status = StatusActive
	}

	f := ListFilter{Status: status, Search: p.Search}
	if p.Category != "" && p.Category != "all" {
		f.Category = p.Category
	}
	if p.UserID != "" {
		uid, err := primitive.ObjectIDFromHex(p.UserID)
		if err != nil {
			return nil, nil, ErrInvalidID
		}
		f.UploadedBy = uid
	}

	order := -1
	if p.SortOrder == "asc" {
		order = 1
	}
	opts := ListOptions{
		Skip:      int64(p.Page-1) * int64(p.Limit),
		Limit:     int64(p.Limit),
		SortBy:    p.SortBy,
		SortOrder: order,
	}

	docs, err := s.repo.Find(ctx, f, opts)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	pg := &Pagination{
		CurrentPage:    p.Page,
		TotalPages:     int((total + int64(p.Limit) - 1) / int64(p.Limit)),
		TotalDocuments: total,
		HasNext:        opts.Skip+int64(len(docs)) < total,
		HasPrev:        p.Page > 1,
	}
	return docs, pg, nil
}

// Get validates the id format before querying.
func (s *Service) Get(ctx context.Context, hexID string) (*Document, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, ErrInvalidID
	}
	return s.repo.FindByID(ctx, id)
}

// Update applies only the provided metadata fields.
func (s *Service) Update(ctx context.Context, hexID string, upd MetadataUpdate) (*Document, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, ErrInvalidID
	}
	if upd.Category != nil && !ValidCategory(*upd.Category) {
		return nil, ErrInvalidCategory
	}
	return s.repo.UpdateFields(ctx, id, upd)
}

// ChangeStatus archives or restores a document. Only "active" and "archived"
// are accepted here; deletion goes through SoftDelete.
func (s *Service) ChangeStatus(ctx context.Context, hexID, status string) (*Document, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, ErrInvalidID
	}
	if status != StatusActive && status != StatusArchived {
		return nil, ErrInvalidStatus
	}
	return s.repo.SetStatus(ctx, id, status)
}

// SoftDelete marks the record deleted; the file stays on disk until a
// permanent delete.
func (s *Service) SoftDelete(ctx context.Context, hexID string) error {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return ErrInvalidID
	}
	_, err = s.repo.SetStatus(ctx, id, StatusDeleted)
	return err
}

// PermanentDelete unlinks the stored file and removes the record. A failed
// unlink is logged and otherwise ignored: the database row wins.
func (s *Service) PermanentDelete(ctx context.Context, hexID string) error {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return ErrInvalidID
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, d.Path); err != nil {
		logger.Warnf("file deletion warning for %s: %v", d.Path, err)
	}
	return s.repo.Delete(ctx, id)
}

// BulkDeleteInput is the request body of the bulk delete endpoint; which
// field applies depends on the criteria discriminator.
type BulkDeleteInput struct {
	IDs      []string `json:"ids"`
	Category string   `json:"category"`
	UserID   string   `json:"userId"`
}

// BulkDelete soft-deletes every not-already-deleted document matched by the
// criteria ("ids", "category" or "user") and returns the count.
func (s *Service) BulkDelete(ctx context.Context, criteria string, in BulkDeleteInput) (int64, error) {
	f := ListFilter{ExcludeDeleted: true}
	switch {
	case criteria == "ids" && len(in.IDs) > 0:
		ids := make([]primitive.ObjectID, 0, len(in.IDs))
		for _, raw := range in.IDs {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				return 0, ErrInvalidID
			}
			ids = append(ids, id)
		}
		f.IDs = ids
	case criteria == "category" && in.Category != "":
		f.Category = in.Category
	case criteria == "user" && in.UserID != "":
		uid, err := primitive.ObjectIDFromHex(in.UserID)
		if err != nil {
			return 0, ErrInvalidID
		}
		f.UploadedBy = uid
	default:
		return 0, ErrInvalidBulkCriteria
	}
	return s.repo.SetStatusWhere(ctx, f, StatusDeleted)
}

// Download atomically bumps the counter and opens the stored file. Soft
// deleted documents are treated as missing.
func (s *Service) Download(ctx context.Context, hexID string) (*Document, io.ReadCloser, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, nil, ErrInvalidID
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if d.Status == StatusDeleted {
		return nil, nil, ErrNotFound
	}
	if err := s.repo.IncrementDownloads(ctx, id); err != nil {
		return nil, nil, err
	}
	d.DownloadCount++
	rc, err := s.store.Open(ctx, d.Path)
	if err != nil {
		return nil, nil, err
	}
	return d, rc, nil
}

// Stats runs the real aggregate queries over the non-deleted registry.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// TrendPoint is one month of the upload/storage series.
type TrendPoint struct {
	Year       int     `json:"year"`
	MonthIndex int     `json:"monthIndex"` // 0-based, mirrors Date#getMonth
	Month      string  `json:"month"`      // short name, e.g. "Jan"
	Uploads    int64   `json:"uploads"`
	Storage    float64 `json:"storage"` // GB, two decimals
}

// Trends returns a fixed-length monthly series ending at the current month,
// zero-filling months without activity. months is clamped to [1,24].
func (s *Service) Trends(ctx context.Context, months int) ([]TrendPoint, error) {
	if months < 1 {
		months = 6
	}
	if months > 24 {
		months = 24
	}
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	buckets, err := s.repo.MonthlyBuckets(ctx, start, now)
	if err != nil {
		return nil, err
	}
	byMonth := map[[2]int]MonthBucket{}
	for _, b := range buckets {
		byMonth[[2]int{b.Year, b.Month}] = b
	}

	series := make([]TrendPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		dt := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		b := byMonth[[2]int{dt.Year(), int(dt.Month())}]
		gb := float64(b.TotalSize) / (1024 * 1024 * 1024)
		series = append(series, TrendPoint{
			Year:       dt.Year(),
			MonthIndex: int(dt.Month()) - 1,
			Month:      dt.Month().String()[:3],
			Uploads:    b.Uploads,
			Storage:    math.Round(gb*100) / 100,
		})
	}
	return series, nil
}
