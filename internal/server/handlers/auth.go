package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/service/auth"
)

// AuthHandler serves login, the current profile and account administration.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type userRequest struct {
	UserName string   `json:"userName"`
	Password string   `json:"password"`
	IsActive *bool    `json:"isActive"`
	RoleIDs  []string `json:"roleIds"`
}

type roleRequest struct {
	Name          string   `json:"name"`
	PermissionIDs []string `json:"permissionIds"`
}

type permissionRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// Me returns the caller with the navigation entries they may open.
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.svc.Me(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, profile)
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	list, err := h.svc.ListUsers(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, user)
}

func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req userRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.CreateUser(c.Request.Context(), actor(c), auth.CreateUserInput{
		UserName: req.UserName,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, user)
}

// UpdateUser keeps the password when none is sent; a missing isActive
// keeps the account active.
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	var req userRequest
	if !bindJSON(c, &req) {
		return
	}
	active := req.IsActive == nil || *req.IsActive
	user, err := h.svc.UpdateUser(c.Request.Context(), actor(c), c.Param("id"), auth.UpdateUserInput{
		UserName: req.UserName,
		Password: req.Password,
		IsActive: active,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, user)
}

func (h *AuthHandler) DeleteUser(c *gin.Context) {
	if err := h.svc.DeleteUser(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *AuthHandler) ListRoles(c *gin.Context) {
	list, err := h.svc.ListRoles(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *AuthHandler) GetRole(c *gin.Context) {
	role, err := h.svc.GetRole(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, role)
}

func (h *AuthHandler) CreateRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.svc.CreateRole(c.Request.Context(), actor(c), auth.RoleInput(req))
	if err != nil {
		fail(c, err)
		return
	}
	created(c, role)
}

func (h *AuthHandler) UpdateRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.svc.UpdateRole(c.Request.Context(), actor(c), c.Param("id"), auth.RoleInput(req))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, role)
}

func (h *AuthHandler) DeleteRole(c *gin.Context) {
	if err := h.svc.DeleteRole(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// ListPermissions serves both /roles/permissions and /permissions.
func (h *AuthHandler) ListPermissions(c *gin.Context) {
	list, err := h.svc.ListPermissions(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *AuthHandler) CreatePermission(c *gin.Context) {
	var req permissionRequest
	if !bindJSON(c, &req) {
		return
	}
	permission, err := h.svc.CreatePermission(c.Request.Context(), actor(c), req.Code, req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, permission)
}
