package dto

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LogoutInput struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CookieInstruction tells the HTTP layer what to do with a cookie. The core
// never touches the transport; it only returns these.
type CookieInstruction struct {
	Name   string
	Value  string
	MaxAge int
	Delete bool
}
