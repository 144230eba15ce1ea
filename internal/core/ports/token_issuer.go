package ports

// TokenIssuer creates signed access tokens binding an identity and its roles
// with a fixed expiry horizon. The core treats the result as an opaque string.
type TokenIssuer interface {
	Issue(username string, roles []string) (string, error)
}
