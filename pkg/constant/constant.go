package constant

const (
	DefaultUserRoleID = 1

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)
