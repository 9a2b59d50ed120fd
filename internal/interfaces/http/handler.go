// Package http exposes the owner-facing admin API: moderation,
// settings and backups over HTTP instead of chat commands.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"project_waBot/internal/entities"
	"project_waBot/internal/plugins"
	"project_waBot/internal/repository"
)

type Handler struct {
	store        *repository.Store
	registry     *plugins.Registry
	passwordHash []byte
	jwtSecret    []byte
}

func NewHandler(store *repository.Store, registry *plugins.Registry, adminPassword, jwtSecret string) (*Handler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:        store,
		registry:     registry,
		passwordHash: hash,
		jwtSecret:    []byte(jwtSecret),
	}, nil
}

func SetupRoutes(r *gin.Engine, h *Handler, m *Middleware) {
	r.POST("/api/login", h.Login)

	api := r.Group("/api", m.AuthRequired())
	api.GET("/stats", h.Stats)
	api.GET("/users", h.Users)
	api.GET("/groups", h.Groups)
	api.POST("/users/:id/ban", h.SetBanned)
	api.POST("/users/:id/premium", h.SetPremium)
	api.POST("/users/:id/limit", h.GrantLimit)
	api.DELETE("/users/:id", h.DeleteUser)
	api.GET("/settings", h.Settings)
	api.POST("/settings", h.SetSetting)
	api.POST("/backup", h.Backup)
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed})
}

func (h *Handler) Stats(c *gin.Context) {
	users := h.store.AllUsers()
	banned, premium := 0, 0
	for _, u := range users {
		if u.Banned {
			banned++
		}
		if u.Premium {
			premium++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"users":    len(users),
		"groups":   len(h.store.AllGroups()),
		"banned":   banned,
		"premium":  premium,
		"commands": len(h.registry.Commands()),
	})
}

func (h *Handler) Users(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.AllUsers())
}

func (h *Handler) Groups(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.AllGroups())
}

func (h *Handler) SetBanned(c *gin.Context) {
	var req struct {
		Banned bool `json:"banned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.store.UpdateUser(c.Param("id"), func(u *entities.User) { u.Banned = req.Banned })
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) SetPremium(c *gin.Context) {
	var req struct {
		Premium bool `json:"premium"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.store.UpdateUser(c.Param("id"), func(u *entities.User) { u.Premium = req.Premium })
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GrantLimit(c *gin.Context) {
	var req struct {
		Amount int `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	if _, _, err := h.store.GetUser(id, ""); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.IncrementLimit(id, req.Amount); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	user, _, err := h.store.GetUser(id, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	deleted, err := h.store.DeleteUser(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Settings())
}

func (h *Handler) SetSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value any    `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SetSetting(req.Key, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{req.Key: h.store.GetSetting(req.Key, nil)})
}

func (h *Handler) Backup(c *gin.Context) {
	path, err := h.store.Backup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}
