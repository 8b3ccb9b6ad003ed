package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/oauth2"

	"github.com/lamnt-dev/drivebox/internal/auth"
)

// AuthHandler serves the admin login endpoint and the one-time OAuth flow
// that seeds the shared drive's refresh token into the vault.
type AuthHandler struct {
	admin       *auth.Admin
	vault       *auth.TokenVault
	serviceUser string
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(admin *auth.Admin, vault *auth.TokenVault, serviceUser string) *AuthHandler {
	return &AuthHandler{admin: admin, vault: vault, serviceUser: serviceUser}
}

// AdminLogin exchanges the admin password for a session token.
func (h *AuthHandler) AdminLogin(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid request body"}, nil
	}

	token, err := h.admin.Login(payload.Password)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: "Invalid password"}, nil
	}
	return jsonResponse(http.StatusOK, map[string]string{"token": token}), nil
}

// Connect returns the Google consent URL the admin visits to grant Drive
// access. Offline access with forced approval so Google issues a refresh
// token even for a previously approved app.
func (h *AuthHandler) Connect(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := h.admin.VerifyRequest(req); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: "Unauthorized"}, nil
	}

	url := h.vault.Config().AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return jsonResponse(http.StatusOK, map[string]string{"url": url}), nil
}

// Callback exchanges the authorization code from the consent redirect and
// stores the refresh token in the vault under the service identity. An
// optional folderId query parameter pins the base folder.
func (h *AuthHandler) Callback(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	code := req.QueryStringParameters["code"]
	if code == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing code parameter"}, nil
	}

	tok, err := h.vault.Config().Exchange(ctx, code)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadGateway, Body: "Token exchange failed"}, nil
	}
	if tok.RefreshToken == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadGateway, Body: "No refresh token granted"}, nil
	}

	if err := h.vault.SaveToken(ctx, h.serviceUser, tok.RefreshToken, req.QueryStringParameters["folderId"]); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return jsonResponse(http.StatusOK, map[string]string{"status": "connected"}), nil
}
