package handlers

import (
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docstack/docstack/internal/documents"
	"github.com/docstack/docstack/internal/users"
	"github.com/docstack/docstack/pkg/logger"
	"github.com/docstack/docstack/pkg/middleware"
)

// AnalyticsHandler serves the reporting endpoints. Document stats and trends
// are real aggregates; the dashboard, usage and performance payloads mix real
// user counts with synthetic filler until the corresponding collectors exist.
type AnalyticsHandler struct {
	docsSvc  *documents.Service
	usersSvc *users.Service
}

func NewAnalyticsHandler(d *documents.Service, u *users.Service) *AnalyticsHandler {
	return &AnalyticsHandler{docsSvc: d, usersSvc: u}
}

func (h *AnalyticsHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.GET("/documents/analytics/stats", auth, h.DocumentStats)
	rg.GET("/documents/analytics/trends", auth, h.DocumentTrends)
	rg.GET("/analytics/dashboard", auth, h.Dashboard)
	rg.GET("/analytics/usage", auth, h.Usage)
	rg.GET("/analytics/performance", auth, h.Performance)
}

// DocumentStats implements GET /api/documents/analytics/stats.
func (h *AnalyticsHandler) DocumentStats(c *gin.Context) {
	stats, err := h.docsSvc.Stats(c.Request.Context())
	if err != nil {
		logger.Errorf("document stats error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch document statistics", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// DocumentTrends implements GET /api/documents/analytics/trends?months=N.
func (h *AnalyticsHandler) DocumentTrends(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", "6"))
	if err != nil {
		months = 6
	}
	if months > 24 {
		months = 24
	}
	if months < 1 {
		months = 1
	}
	series, err := h.docsSvc.Trends(c.Request.Context(), months)
	if err != nil {
		logger.Errorf("document trends error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch document trends", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "months": months, "series": series})
}

// Dashboard implements GET /api/analytics/dashboard. User counters come from
// the database; the document counters, activity series and storage gauge are
// synthetic placeholders.
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	totalUsers, err := h.usersSvc.Count(ctx)
	if err != nil {
		logger.Errorf("dashboard analytics error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch dashboard statistics", "error": err.Error()})
		return
	}
	newToday, err := h.usersSvc.CountCreatedSince(ctx, midnight)
	if err != nil {
		logger.Errorf("dashboard analytics error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch dashboard statistics", "error": err.Error()})
		return
	}
	newThisWeek, err := h.usersSvc.CountCreatedSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		logger.Errorf("dashboard analytics error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch dashboard statistics", "error": err.Error()})
		return
	}
	newThisMonth, err := h.usersSvc.CountCreatedSince(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		logger.Errorf("dashboard analytics error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch dashboard statistics", "error": err.Error()})
		return
	}

	activityData := make([]gin.H, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		activityData = append(activityData, gin.H{
			"date":      day.Format("2006-01-02"),
			"users":     rand.Intn(50) + 10,
			"documents": rand.Intn(100) + 20,
			"views":     rand.Intn(200) + 50,
		})
	}

	storageUsed := rand.Intn(80) + 10
	userName := ""
	if u := middleware.CurrentUser(c); u != nil {
		userName = u.FirstName
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"totalUsers":         totalUsers,
			"newUsersToday":      newToday,
			"newUsersThisWeek":   newThisWeek,
			"newUsersThisMonth":  newThisMonth,
			"totalDocuments":     rand.Intn(1000) + 500,
			"documentsToday":     rand.Intn(50) + 10,
			"documentsThisWeek":  rand.Intn(200) + 50,
			"documentsThisMonth": rand.Intn(500) + 100,
			"storageUsed":        storageUsed,
			"storageTotal":       100,
			"storagePercentage":  storageUsed,
		},
		"activityData": activityData,
		"recentActivity": []gin.H{
			{"id": 1, "type": "user_registered", "message": "New user registered", "user": userName, "timestamp": now.UTC().Format(time.RFC3339)},
			{"id": 2, "type": "document_uploaded", "message": "Document uploaded", "user": "John Doe", "timestamp": now.Add(-30 * time.Minute).UTC().Format(time.RFC3339)},
			{"id": 3, "type": "user_login", "message": "User logged in", "user": "Jane Smith", "timestamp": now.Add(-time.Hour).UTC().Format(time.RFC3339)},
		},
	})
}

// Usage implements GET /api/analytics/usage?period=7d|30d|90d with synthetic
// per-day series and a summed summary.
func (h *AnalyticsHandler) Usage(c *gin.Context) {
	period := c.DefaultQuery("period", "7d")
	days := 7
	switch period {
	case "30d":
		days = 30
	case "90d":
		days = 90
	}

	now := time.Now()
	data := make([]gin.H, 0, days)
	var totalActive, totalCreated, totalViewed, totalStorage int
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		activeUsers := rand.Intn(100) + 20
		created := rand.Intn(50) + 5
		viewed := rand.Intn(200) + 50
		storageMB := rand.Intn(1000) + 100
		totalActive += activeUsers
		totalCreated += created
		totalViewed += viewed
		totalStorage += storageMB
		data = append(data, gin.H{
			"date":             day.Format("2006-01-02"),
			"activeUsers":      activeUsers,
			"documentsCreated": created,
			"documentsViewed":  viewed,
			"storageUsed":      storageMB,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"period": period,
		"data":   data,
		"summary": gin.H{
			"totalActiveUsers":      totalActive,
			"totalDocumentsCreated": totalCreated,
			"totalDocumentsViewed":  totalViewed,
			"totalStorageUsed":      totalStorage,
		},
	})
}

// Performance implements GET /api/analytics/performance with synthetic
// latency, throughput and error-rate figures.
func (h *AnalyticsHandler) Performance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"responseTime": gin.H{
			"average": rand.Intn(200) + 50,
			"p95":     rand.Intn(500) + 200,
			"p99":     rand.Intn(1000) + 500,
		},
		"throughput": gin.H{
			"requestsPerSecond": rand.Intn(100) + 50,
			"requestsPerMinute": rand.Intn(6000) + 3000,
		},
		"errorRate": gin.H{
			"percentage": rand.Float64() * 2,
			"total":      rand.Intn(50),
		},
		"uptime": gin.H{
			"percentage":   99.9,
			"lastDowntime": time.Now().AddDate(0, 0, -7).UTC().Format(time.RFC3339),
		},
	})
}
