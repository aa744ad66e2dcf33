package config

// AuthConfig names where the bearer token comes from.
type AuthConfig struct {
	// TokenEnv is the environment variable holding the token. Default: "DOCVIEW_TOKEN".
	TokenEnv string `toml:"token_env"`
}

func (c *AuthConfig) Finalize() error {
	if c.TokenEnv == "" {
		c.TokenEnv = "DOCVIEW_TOKEN"
	}
	return nil
}

func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.TokenEnv != "" {
		c.TokenEnv = overlay.TokenEnv
	}
}
