package handler

type signUpRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=20"`
	Email    string   `json:"email"    validate:"required,email,max=50"`
	Password string   `json:"password" validate:"required,min=6,max=40"`
	Roles    []string `json:"roles"`
}

type signInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenRefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,len=36"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// jwtResponse is returned on a successful signin.
type jwtResponse struct {
	Type         string   `json:"type"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
}

// tokenRefreshResponse is returned on a successful refresh. RefreshToken echoes
// the input token: refresh tokens are only replaced on a new signin.
type tokenRefreshResponse struct {
	Type         string `json:"type"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
