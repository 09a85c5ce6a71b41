package gcal

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/oauth2"
)

func TestSaveTokenRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tok := &oauth2.Token{AccessToken: "abc", RefreshToken: "def", TokenType: "Bearer"}
	if err := SaveToken("work", tok); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	got, err := tokenFromFile(tokenFile("work"))
	if err != nil {
		t.Fatalf("tokenFromFile: %v", err)
	}
	if got.AccessToken != "abc" || got.RefreshToken != "def" {
		t.Errorf("round-tripped token = %+v", got)
	}
}

func TestTokenFileLivesInConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	want := filepath.Join(dir, "traybrief", "token-work.json")
	if got := tokenFile("work"); got != want {
		t.Errorf("tokenFile = %q, want %q", got, want)
	}
}

func TestTokenAccounts(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// No config dir yet.
	accounts, err := TokenAccounts()
	if err != nil {
		t.Fatalf("TokenAccounts: %v", err)
	}
	if len(accounts) != 0 {
		t.Fatalf("expected no accounts, got %v", accounts)
	}

	for _, name := range []string{"work", "personal"} {
		if err := SaveToken(name, &oauth2.Token{AccessToken: name}); err != nil {
			t.Fatalf("SaveToken(%s): %v", name, err)
		}
	}
	// An unrelated file in the config dir is ignored.
	if err := os.WriteFile(filepath.Join(filepath.Dir(tokenFile("x")), "config.toml"), []byte(""), 0o600); err != nil {
		t.Fatal(err)
	}

	accounts, err = TokenAccounts()
	if err != nil {
		t.Fatalf("TokenAccounts: %v", err)
	}
	if !reflect.DeepEqual(accounts, []string{"personal", "work"}) {
		t.Errorf("accounts = %v, want [personal work]", accounts)
	}
}
