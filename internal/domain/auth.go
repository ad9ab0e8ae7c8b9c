package domain

// Credentials is the body of POST /auth/signup and POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is what signup and login return. Only the token is used.
type AuthResult struct {
	Token string `json:"token"`
}
