package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docstack/docstack/internal/users"
	"github.com/docstack/docstack/pkg/logger"
)

// UsersHandler serves the admin/testing user listing.
type UsersHandler struct {
	usersSvc *users.Service
}

func NewUsersHandler(u *users.Service) *UsersHandler {
	return &UsersHandler{usersSvc: u}
}

func (h *UsersHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/users", h.List)
}

// List implements GET /api/users: a reduced projection of every user sorted
// by registration date, newest first.
func (h *UsersHandler) List(c *gin.Context) {
	list, err := h.usersSvc.List(c.Request.Context())
	if err != nil {
		logger.Errorf("error fetching users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, u := range list {
		out = append(out, gin.H{
			"id":        u.ID.Hex(),
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"email":     u.Email,
			"country":   u.Country,
			"createdAt": u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "count": len(out)})
}
