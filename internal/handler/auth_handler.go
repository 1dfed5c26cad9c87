package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

type tokenIssuer interface {
	IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error)
}

// AuthHandler exchanges the owner passphrase for an access token.
type AuthHandler struct {
	auth tokenIssuer
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth tokenIssuer) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Token godoc
// @Summary Issue access token
// @Description Returns 404 when authentication is disabled.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.TokenRequest true "Passphrase"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.TokenRequest
	if !bindJSON(c, &req, "invalid token payload") {
		return
	}
	token, err := h.auth.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, token)
}
