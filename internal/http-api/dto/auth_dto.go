package dto

// Data Transfer Objects for the signup/token flow

// SignupRequest: payload for requesting a confirmation code
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

// SignupResponse echoes the accepted pair; the code itself travels by mail
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ObtainTokenRequest: payload for exchanging a confirmation code
type ObtainTokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// TokenResponse: bearer credential for subsequent requests
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
