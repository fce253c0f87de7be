package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/auth"
	"classtrack/internal/user"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

func (a *API) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = user.RoleStudent
	}
	if !user.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid role"})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		a.writeError(c, err)
		return
	}
	u, err := a.Users.Create(c.Request.Context(), user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	token, exp, err := auth.Issue(u.ID, u.Role, a.Cfg.JWTIssuer, a.Cfg.JWTSigningKey, a.Cfg.AccessTTL)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "expiresAt": exp.Unix(), "user": u})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	u, err := a.Users.ByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		// Same response for unknown email and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	token, exp, err := auth.Issue(u.ID, u.Role, a.Cfg.JWTIssuer, a.Cfg.JWTSigningKey, a.Cfg.AccessTTL)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": exp.Unix(), "user": u})
}

func (a *API) me(c *gin.Context) {
	claims := auth.CurrentUser(c)
	u, err := a.Users.ByID(c.Request.Context(), claims.UserID)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
