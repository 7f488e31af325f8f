package documents

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lifecycle statuses. "deleted" is the soft-delete tier; hard deletion removes
// the record and the backing file.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusDeleted  = "deleted"
)

const DefaultCategory = "document"

var validCategories = map[string]bool{
	"document": true,
	"image":    true,
	"video":    true,
	"audio":    true,
	"other":    true,
}

func ValidCategory(c string) bool { return validCategories[c] }

// Document is the metadata record for one uploaded file. The binary itself
// lives in the storage backend at Path.
type Document struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description"`
	Filename      string             `bson:"filename" json:"filename"`
	OriginalName  string             `bson:"originalName" json:"originalName"`
	MimeType      string             `bson:"mimeType" json:"mimeType"`
	Size          int64              `bson:"size" json:"size"`
	Path          string             `bson:"path" json:"path"`
	UploadedBy    primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
	Category      string             `bson:"category" json:"category"`
	Tags          []string           `bson:"tags" json:"tags"`
	Status        string             `bson:"status" json:"status"`
	DownloadCount int64              `bson:"downloadCount" json:"downloadCount"`
	IsPublic      bool               `bson:"isPublic" json:"isPublic"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FileType is a coarse label derived from the MIME type.
func (d *Document) FileType() string {
	mt := d.MimeType
	switch {
	case strings.HasPrefix(mt, "image/"):
		return "Image"
	case strings.HasPrefix(mt, "video/"):
		return "Video"
	case strings.HasPrefix(mt, "audio/"):
		return "Audio"
	case strings.Contains(mt, "pdf"):
		return "PDF"
	case strings.Contains(mt, "word"), strings.Contains(mt, "document"):
		return "Document"
	case strings.Contains(mt, "sheet"), strings.Contains(mt, "excel"):
		return "Spreadsheet"
	case strings.Contains(mt, "presentation"), strings.Contains(mt, "powerpoint"):
		return "Presentation"
	}
	return "Other"
}

// FormattedSize renders Size as a human-readable string ("1.5 MB").
func (d *Document) FormattedSize() string {
	return formatBytes(d.Size)
}

func formatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB", "TB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	return fmt.Sprintf("%v %s", math.Round(v*100)/100, sizes[i])
}

// MarshalJSON includes the derived fileType and formattedSize fields so API
// responses keep the shape the frontend expects.
func (d *Document) MarshalJSON() ([]byte, error) {
	type alias Document
	return json.Marshal(struct {
		*alias
		FileType      string `json:"fileType"`
		FormattedSize string `json:"formattedSize"`
	}{(*alias)(d), d.FileType(), d.FormattedSize()})
}
