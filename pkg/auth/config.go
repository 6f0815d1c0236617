package auth

// Config configures token verification against the identity provider.
type Config struct {
	Issuer   string `env:"AUTH_ISSUER,required"` // Issuer is the expected "iss" claim, e.g. https://clerk.example.com.
	JWKSURL  string `env:"AUTH_JWKS_URL"`        // JWKSURL defaults to {Issuer}/.well-known/jwks.json.
	Audience string `env:"AUTH_AUDIENCE"`        // Audience is checked only when set.

	// SecretKey authenticates backend API calls. User lookups are disabled
	// when it is empty.
	SecretKey string `env:"AUTH_SECRET_KEY"`
	APIURL    string `env:"AUTH_API_URL" envDefault:"https://api.clerk.com/v1"`
}
