package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Access tokens
	TokenSigningKey string `envconfig:"TOKEN_SIGNING_KEY"` // base64, HS256 secret
	TokenIssuer     string `envconfig:"TOKEN_ISSUER" default:"lostlink"`
	TokenTTLMin     uint   `envconfig:"TOKEN_TTL_MIN" default:"720"`

	// Optional campus SSO: admin tokens signed by this issuer are accepted
	// after verification against its published JWKS.
	SSOIssuerURL string `envconfig:"SSO_ISSUER_URL"`

	// Object storage for item images and claim proofs
	StorageBucket string `envconfig:"STORAGE_BUCKET" default:"lostlink-uploads"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
