package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulso-galeria/auth-service/internal/domain"
	"github.com/impulso-galeria/auth-service/internal/http/middleware"
	"github.com/impulso-galeria/auth-service/internal/repository"
)

// AdminHandler exposes the user and role management surface. All routes
// sit behind RequirePermission middleware.
type AdminHandler struct {
	Users  repository.UserRepository
	RBAC   repository.RBACRepository
	Logger *zap.Logger
}

// NewAdminHandler creates the admin handler set.
func NewAdminHandler(users repository.UserRepository, rbac repository.RBACRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Users: users, RBAC: rbac, Logger: logger}
}

type adminUserView struct {
	ID          int64     `json:"id"`
	CustomerID  string    `json:"customer_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// ListUsers returns all application users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	views := make([]adminUserView, 0, len(users))
	for _, u := range users {
		views = append(views, adminUserView{
			ID:          u.ID,
			CustomerID:  u.CustomerID,
			Email:       u.Email,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			IsActive:    u.IsActive,
			CreatedAt:   u.CreatedAt,
			LastLoginAt: u.LastLoginAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

// AssignRole grants a role to a user, recording who assigned it.
func (h *AdminHandler) AssignRole(c *gin.Context) {
	userID, ok := h.pathUserID(c)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "role is required."})
		return
	}

	ctx := c.Request.Context()
	role, err := h.RBAC.GetRoleByName(ctx, req.Role)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown_role", "error_description": "No such role."})
			return
		}
		h.serverError(c, err)
		return
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown_user", "error_description": "No such user."})
			return
		}
		h.serverError(c, err)
		return
	}

	assignedBy := "system"
	if sess, ok := middleware.GetSession(c); ok {
		assignedBy = sess.User.Email
	}

	if err := h.RBAC.AssignRole(ctx, user.ID, role.ID, assignedBy); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "role_already_assigned", "error_description": "User already holds this role."})
			return
		}
		h.serverError(c, err)
		return
	}

	h.Logger.Info("role assigned",
		zap.Int64("user_id", user.ID),
		zap.String("role", role.Name),
		zap.String("assigned_by", assignedBy),
	)
	c.JSON(http.StatusCreated, gin.H{"status": "assigned", "role": role.Name})
}

// RemoveRole revokes a role from a user. Takes effect on the user's next
// request, no re-login needed.
func (h *AdminHandler) RemoveRole(c *gin.Context) {
	userID, ok := h.pathUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	role, err := h.RBAC.GetRoleByName(ctx, c.Param("role"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown_role", "error_description": "No such role."})
			return
		}
		h.serverError(c, err)
		return
	}

	if err := h.RBAC.RemoveRole(ctx, userID, role.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "role_not_assigned", "error_description": "User does not hold this role."})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed", "role": role.Name})
}

// BlogScope answers whether the caller may edit all blog posts or only
// their own. The route admits either permission; the session decides the
// breadth.
func (h *AdminHandler) BlogScope(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}
	scope := "own"
	if sess.HasPermission(domain.PermManageAllBlogPosts) {
		scope = "all"
	}
	c.JSON(http.StatusOK, gin.H{"scope": scope})
}

func (h *AdminHandler) pathUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid user id."})
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) serverError(c *gin.Context, err error) {
	h.Logger.Error("admin handler failure", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":             "server_error",
		"error_description": "Internal server error.",
	})
}
