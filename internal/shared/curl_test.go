package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl -H 'Authorization: Token abc123' https://hsreplay.net/api/v1/games/`,
			wantHeaders: map[string]string{"Authorization": "Token abc123"},
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl -H "Authorization: Token abc123" https://hsreplay.net/api/v1/games/`,
			wantHeaders: map[string]string{"Authorization": "Token abc123"},
		},
		{
			name:    "multiple headers",
			curlCmd: `curl -H 'Accept: application/json' -H 'Authorization: Token abc' https://hsreplay.net/api/v1/games/`,
			wantHeaders: map[string]string{
				"Accept":        "application/json",
				"Authorization": "Token abc",
			},
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'sessionid=abc123' https://hsreplay.net/`,
			wantHeaders: map[string]string{},
			wantCookie:  "sessionid=abc123",
		},
		{
			name:        "cookie in -H header is excluded from headers",
			curlCmd:     `curl -H 'Cookie: sessionid=abc123; csrftoken=xyz' -H 'Accept: */*' https://hsreplay.net/`,
			wantHeaders: map[string]string{"Accept": "*/*"},
			wantCookie:  "sessionid=abc123; csrftoken=xyz",
		},
		{
			name: "multiline curl with backslashes",
			curlCmd: `curl 'https://hsreplay.net/api/v1/games/?username=rdu' \
  -H 'accept: application/json' \
  -H 'authorization: Token abc' \
  --compressed`,
			wantHeaders: map[string]string{
				"accept":        "application/json",
				"authorization": "Token abc",
			},
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://hsreplay.net/`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://hsreplay.net/`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand(tc.curlCmd)

			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("headers count = %v, want %v", len(result.Headers), len(tc.wantHeaders))
			}
			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("header[%s] = %v, want %v", key, got, want)
				}
			}
			if result.Cookie != tc.wantCookie {
				t.Errorf("cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestCurlHeaders(t *testing.T) {
	t.Run("APIToken", func(t *testing.T) {
		h := &CurlHeaders{Headers: map[string]string{"authorization": "Token  deadbeef "}}
		token, err := h.APIToken()
		if err != nil {
			t.Fatalf("APIToken() error = %v", err)
		}
		if token != "deadbeef" {
			t.Errorf("APIToken() = %q, want deadbeef", token)
		}
	})

	t.Run("APIToken Wrong Scheme", func(t *testing.T) {
		h := &CurlHeaders{Headers: map[string]string{"Authorization": "Bearer deadbeef"}}
		if _, err := h.APIToken(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("CookieValue", func(t *testing.T) {
		h := &CurlHeaders{Cookie: "csrftoken=xyz; sessionid=abc123"}
		if got := h.CookieValue("sessionid"); got != "abc123" {
			t.Errorf("CookieValue(sessionid) = %q", got)
		}
		if got := h.CookieValue("missing"); got != "" {
			t.Errorf("CookieValue(missing) = %q, want empty", got)
		}
	})
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "curl.sh")
		curlCmd := `curl -H 'Authorization: Token abc123' -H 'Accept: application/json' https://hsreplay.net/api/v1/games/`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}
		if len(result.Headers) != 2 {
			t.Errorf("ParseCurlFile() headers count = %v, want 2", len(result.Headers))
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		if _, err := ParseCurlFile("/nonexistent/file.sh"); err == nil {
			t.Error("ParseCurlFile() expected error for nonexistent file")
		}
	})
}
