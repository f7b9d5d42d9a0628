package request

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Password string `json:"password"`
}

// DeleteRequest is the request body for a self-service delete
type DeleteRequest struct {
	Password string `json:"password"`
}

// ProtectRequest is the request body for setting cleanup protection
type ProtectRequest struct {
	Protected bool `json:"protected"`
}
