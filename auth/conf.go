package auth

import "golang.org/x/oauth2/clientcredentials"

// Conf holds the OAuth2 client credentials used to call a protected
// backend. An empty TokenURL disables authentication.
type Conf struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
}

// Enabled reports whether a token endpoint is configured.
func (c Conf) Enabled() bool { return c.TokenURL != "" }

func (c *Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
}
