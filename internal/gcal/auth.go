package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"traybrief/internal/config"
)

// oauthConfig builds the OAuth2 config from the client id/secret supplied by
// the environment.
func oauthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set for google calendar feeds")
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}, nil
}

// OAuthConfigForAuthFlow is used by the auth command to run the web flow.
func OAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return oauthConfig(clientID, clientSecret)
}

// TokenFromWeb exchanges an authorization code for a token.
func TokenFromWeb(config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(context.Background(), authCode)
}

// Token files live in the traybrief config directory, one per account,
// so they survive working-directory changes between runs.
const (
	tokenPrefix = "token-"
	tokenSuffix = ".json"
)

func tokenFile(account string) string {
	return filepath.Join(config.Dir(), tokenPrefix+account+tokenSuffix)
}

// SaveToken writes an account's token file, creating the config dir if
// needed.
func SaveToken(account string, token *oauth2.Token) error {
	if err := os.MkdirAll(config.Dir(), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(tokenFile(account), data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// TokenAccounts lists the account names with a saved token file. A missing
// config dir means no accounts, not an error.
func TokenAccounts() ([]string, error) {
	entries, err := os.ReadDir(config.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config dir: %w", err)
	}

	var accounts []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, tokenPrefix) || !strings.HasSuffix(name, tokenSuffix) {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(strings.TrimPrefix(name, tokenPrefix), tokenSuffix))
	}
	return accounts, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return tok, nil
}
