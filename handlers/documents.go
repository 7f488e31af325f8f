package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/docstack/docstack/internal/documents"
	"github.com/docstack/docstack/pkg/logger"
	"github.com/docstack/docstack/pkg/metrics"
	"github.com/docstack/docstack/pkg/middleware"
)

// DocumentsHandler serves the document registry routes.
type DocumentsHandler struct {
	svc *documents.Service
}

func NewDocumentsHandler(svc *documents.Service) *DocumentsHandler {
	return &DocumentsHandler{svc: svc}
}

// Register mounts the document routes under the given group. Mutating routes
// require authentication; reads are open.
func (h *DocumentsHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.POST("/documents/upload", auth, h.Upload)
	rg.GET("/documents", h.List)
	rg.GET("/documents/:id", h.Get)
	rg.PUT("/documents/:id", auth, h.Update)
	rg.PATCH("/documents/:id/status", auth, h.UpdateStatus)
	rg.DELETE("/documents/:id", auth, h.SoftDelete)
	rg.DELETE("/documents/:id/permanent", auth, h.PermanentDelete)
	rg.DELETE("/documents/bulk/:criteria", auth, h.BulkDelete)
	rg.GET("/documents/:id/download", h.Download)
}

// Upload implements POST /api/documents/upload (multipart, field "files").
func (h *DocumentsHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid multipart form", "error": err.Error()})
		return
	}
	meta := documents.UploadMeta{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Tags:        c.PostForm("tags"),
		IsPublic:    c.PostForm("isPublic"),
	}

	owner := middleware.CurrentUser(c)
	docs, err := h.svc.Upload(c.Request.Context(), owner.ID, form.File["files"], meta)
	if err != nil {
		var rejected *documents.FileRejectedError
		switch {
		case errors.Is(err, documents.ErrNoFiles):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No files uploaded"})
		case errors.As(err, &rejected), errors.Is(err, documents.ErrInvalidCategory):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		default:
			logger.Errorf("upload error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Upload failed", "error": err.Error()})
		}
		return
	}

	metrics.DocumentsUploaded.Add(float64(len(docs)))
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("%d file(s) uploaded successfully", len(docs)),
		"documents": docs,
	})
}

// List implements GET /api/documents with filtering, search, sorting and
// pagination.
func (h *DocumentsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	params := documents.ListParams{
		Page:      page,
		Limit:     limit,
		Category:  c.Query("category"),
		Status:    c.DefaultQuery("status", "active"),
		Search:    c.Query("search"),
		SortBy:    c.DefaultQuery("sortBy", "createdAt"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
		UserID:    c.Query("userId"),
	}

	docs, pagination, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, documents.ErrInvalidID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
			return
		}
		logger.Errorf("fetch documents error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch documents", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "documents": docs, "pagination": pagination})
}

// Get implements GET /api/documents/:id.
func (h *DocumentsHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeDocError(c, err, "Failed to fetch document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "document": doc})
}

type updateDocumentRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Tags        any     `json:"tags"`
	IsPublic    *bool   `json:"isPublic"`
}

// Update implements PUT /api/documents/:id; only provided fields change.
// Tags may arrive as an array or a comma-separated string.
func (h *DocumentsHandler) Update(c *gin.Context) {
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body", "error": err.Error()})
		return
	}

	upd := documents.MetadataUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		IsPublic:    req.IsPublic,
	}
	switch v := req.Tags.(type) {
	case string:
		tags := documents.ParseTags(v)
		upd.Tags = &tags
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		upd.Tags = &tags
	}

	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		if errors.Is(err, documents.ErrInvalidCategory) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid category"})
			return
		}
		h.writeDocError(c, err, "Failed to update document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document updated successfully", "document": doc})
}

// UpdateStatus implements PATCH /api/documents/:id/status (archive/restore).
func (h *DocumentsHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body", "error": err.Error()})
		return
	}
	doc, err := h.svc.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, documents.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": `Invalid status. Must be "active" or "archived"`})
			return
		}
		h.writeDocError(c, err, "Failed to update document status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("Document %s successfully", req.Status), "document": doc})
}

// SoftDelete implements DELETE /api/documents/:id.
func (h *DocumentsHandler) SoftDelete(c *gin.Context) {
	if err := h.svc.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeDocError(c, err, "Failed to delete document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted successfully"})
}

// PermanentDelete implements DELETE /api/documents/:id/permanent.
func (h *DocumentsHandler) PermanentDelete(c *gin.Context) {
	if err := h.svc.PermanentDelete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeDocError(c, err, "Failed to permanently delete document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document permanently deleted"})
}

// BulkDelete implements DELETE /api/documents/bulk/:criteria where criteria
// is one of ids, category or user.
func (h *DocumentsHandler) BulkDelete(c *gin.Context) {
	var req documents.BulkDeleteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body", "error": err.Error()})
		return
	}
	count, err := h.svc.BulkDelete(c.Request.Context(), c.Param("criteria"), req)
	if err != nil {
		if errors.Is(err, documents.ErrInvalidBulkCriteria) || errors.Is(err, documents.ErrInvalidID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid bulk delete criteria"})
			return
		}
		logger.Errorf("bulk delete error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete documents", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("%d documents deleted successfully", count),
		"deletedCount": count,
	})
}

// Download implements GET /api/documents/:id/download: bumps the counter and
// streams the file under its original name.
func (h *DocumentsHandler) Download(c *gin.Context) {
	doc, rc, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeDocError(c, err, "Failed to download document")
		return
	}
	defer rc.Close()

	metrics.DocumentsDownloaded.Inc()
	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.OriginalName),
	}
	c.DataFromReader(http.StatusOK, doc.Size, doc.MimeType, rc, extraHeaders)
}

// writeDocError maps the shared id/not-found error cases.
func (h *DocumentsHandler) writeDocError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, documents.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid document ID"})
	case errors.Is(err, documents.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Document not found"})
	default:
		logger.Errorf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback, "error": err.Error()})
	}
}
