package provision

// SimpleConfig is an explicit configuration struct handed to the transport
// boundary at startup. Nothing here is globally mutable; construct one, pass
// it in, done.
type SimpleConfig struct {
	SigningKey      string
	TokenExpiration int
	Issuer          string
	ContextKey      string
	TokenLookup     string
	AuthScheme      string
}

var _ Config = SimpleConfig{}

// NewConfig returns a SimpleConfig with sane defaults for everything but the
// signing key.
func NewConfig(signingKey string) SimpleConfig {
	return SimpleConfig{
		SigningKey:      signingKey,
		TokenExpiration: 24,
		Issuer:          "go-provision",
		ContextKey:      "session",
		TokenLookup:     "cookie:session,header:Authorization",
		AuthScheme:      "Bearer",
	}
}

func (c SimpleConfig) GetSigningKey() string   { return c.SigningKey }
func (c SimpleConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c SimpleConfig) GetIssuer() string       { return c.Issuer }
func (c SimpleConfig) GetContextKey() string   { return c.ContextKey }
func (c SimpleConfig) GetTokenLookup() string  { return c.TokenLookup }
func (c SimpleConfig) GetAuthScheme() string   { return c.AuthScheme }
