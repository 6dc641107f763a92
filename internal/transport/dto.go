package transport

import (
	"time"

	"github.com/djloghub/portfolio-backend/internal/models"
	"github.com/djloghub/portfolio-backend/internal/util"
)

type LoginRequest struct {
	LoginName string `json:"loginName"`
	Password  string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SessionView struct {
	TokenID        string    `json:"tokenId"`
	ClientIP       string    `json:"clientIp"`
	UserAgent      string    `json:"userAgent"`
	LoginTime      time.Time `json:"loginTime"`
	LastAccessTime time.Time `json:"lastAccessTime"`
	Current        bool      `json:"current"`
}

type SessionsResponse struct {
	Sessions []SessionView `json:"sessions"`
}

type LogoutEverywhereResponse struct {
	Message string `json:"message"`
	Revoked int    `json:"revoked"`
}

type CreateProjectRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
}

type PatchProjectRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status"`
}

type ProjectListResponse struct {
	Data []models.Project `json:"data"`
	Meta util.PageMeta    `json:"meta"`
}
