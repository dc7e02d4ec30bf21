package outbound

// CallerClaims identifies an authenticated caller of the HTTP API.
type CallerClaims struct {
	Subject string
	Email   string
	Scopes  []string
}

// HasScope returns true if the caller was granted scope.
func (c *CallerClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenValidatorPort validates caller bearer tokens.
type TokenValidatorPort interface {
	// ValidateToken parses and verifies a token.
	ValidateToken(token string) (*CallerClaims, error)
}
