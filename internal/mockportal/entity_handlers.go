package mockportal

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizhub/portal-client/internal/models"
)

// EntityHandler serves the users and partners admin CRUD.
type EntityHandler struct {
	dir *Directory
}

func NewEntityHandler(d *Directory) *EntityHandler {
	return &EntityHandler{dir: d}
}

// Register mounts the CRUD routes; callers wrap the group with auth.
func (h *EntityHandler) Register(rg *gin.RouterGroup) {
	u := rg.Group("/users")
	u.GET("", h.ListUsers)
	u.POST("", h.CreateUser)
	u.PUT("/:id", h.UpdateUser)
	u.DELETE("/:id", h.DeleteUser)

	p := rg.Group("/partners")
	p.GET("", h.ListPartners)
	p.POST("", h.CreatePartner)
	p.PUT("/:id", h.UpdatePartner)
	p.DELETE("/:id", h.DeletePartner)
}

func writeEntityError(c *gin.Context, err error) {
	switch {
	case IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *EntityHandler) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.dir.ListUsers())
}

func (h *EntityHandler) CreateUser(c *gin.Context) {
	var u models.User
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.dir.CreateUser(u, "")
	if err != nil {
		writeEntityError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EntityHandler) UpdateUser(c *gin.Context) {
	var u models.User
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.dir.UpdateUser(c.Param("id"), u)
	if err != nil {
		writeEntityError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EntityHandler) DeleteUser(c *gin.Context) {
	if err := h.dir.DeleteUser(c.Param("id")); err != nil {
		writeEntityError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EntityHandler) ListPartners(c *gin.Context) {
	c.JSON(http.StatusOK, h.dir.ListPartners())
}

func (h *EntityHandler) CreatePartner(c *gin.Context) {
	var p models.Partner
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.dir.CreatePartner(p)
	if err != nil {
		writeEntityError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EntityHandler) UpdatePartner(c *gin.Context) {
	var p models.Partner
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.dir.UpdatePartner(c.Param("id"), p)
	if err != nil {
		writeEntityError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EntityHandler) DeletePartner(c *gin.Context) {
	if err := h.dir.DeletePartner(c.Param("id")); err != nil {
		writeEntityError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
