package types

// ------------------------------
// Auth wire types
// ------------------------------

// LoginRequest is the body of POST /auth.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/new.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by /auth, /auth/new and /auth/renew.
type AuthResponse struct {
	Ok    bool   `json:"ok"`
	UID   string `json:"uid,omitempty"`
	Name  string `json:"name,omitempty"`
	Token string `json:"token,omitempty"`
	Msg   string `json:"msg,omitempty"`
}

// ErrorResponse is the failure body. Validation failures carry Errors
// and no Msg.
type ErrorResponse struct {
	Ok     bool                  `json:"ok"`
	Msg    string                `json:"msg,omitempty"`
	Errors map[string]FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Location string `json:"location,omitempty"`
}
