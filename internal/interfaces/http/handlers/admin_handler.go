package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/interfaces/http/middleware"
	"qomex.backend/internal/interfaces/http/response"
	"qomex.backend/pkg/logger"
	"qomex.backend/pkg/utils"
)

// AdminHandler handles admin endpoints
type AdminHandler struct {
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers lists users
// GET /admin/users?search=&sort=&page=&limit=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := entities.UserListFilter{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}

	users, meta, err := h.adminService.ListUsers(c.Request.Context(), filter, paginationFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"items": users,
		"meta":  meta,
	})
}

// GetUser returns one user
// GET /admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "user")
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateUser edits the admin-editable fields of a user
// PUT /admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "user")
	if !ok {
		return
	}

	var input entities.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request body"))
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	admin := c.GetString(middleware.AdminUserKey)
	logger.Info(c.Request.Context(), "Admin updated user", zap.String("admin", admin), zap.Int64("user_id", id))
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// ReconcileUser replays pending postbacks for a user
// POST /admin/users/:id/reconcile
func (h *AdminHandler) ReconcileUser(c *gin.Context) {
	id, ok := parseIDParam(c, "user")
	if !ok {
		return
	}

	n, err := h.adminService.ReconcileUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reconciled": n})
}

// ListPostbacks lists stored postbacks, newest first
// GET /admin/postbacks?search=&processed=&page=&limit=
func (h *AdminHandler) ListPostbacks(c *gin.Context) {
	filter := entities.PostbackListFilter{Search: c.Query("search")}
	if raw := c.Query("processed"); raw != "" {
		processed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("processed must be true or false"))
			return
		}
		filter.Processed = &processed
	}

	logs, meta, err := h.adminService.ListPostbacks(c.Request.Context(), filter, paginationFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"items": logs,
		"meta":  meta,
	})
}

// GetPostback returns one stored postback
// GET /admin/postbacks/:id
func (h *AdminHandler) GetPostback(c *gin.Context) {
	id, ok := parseIDParam(c, "postback")
	if !ok {
		return
	}

	log, err := h.adminService.GetPostback(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"postback": log})
}

func parseIDParam(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, domainerrors.BadRequest("invalid "+what+" id"))
		return 0, false
	}
	return id, true
}

func paginationFromQuery(c *gin.Context) utils.PaginationParams {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return utils.GetPaginationParams(page, limit)
}
