package auth

// DevAuthRequest: тело запроса dev-авторизации (необязательное)
type DevAuthRequest struct {
	// CoachID становится subject токена; пусто = "dev-coach"
	CoachID string `json:"coach_id,omitempty"`
}

// DevAuthResponse: ответ на dev-авторизацию
type DevAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	CoachID     string `json:"coach_id"`
}

// ErrorResponse: формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
