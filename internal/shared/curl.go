// Utilities for parsing cURL commands copied from browser devtools.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	headerRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a cURL command string and extracts headers.
//
// A "-b" cookie wins over a "Cookie:" header.
func ParseCurlCommand(curlCmd string) (*CurlHeaders, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie, headerCookie string

	for _, match := range headerRegex.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := splitHeader(firstGroup(match))
		if !ok {
			continue
		}
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		headers[key] = value
	}

	if m := cookieRegex.FindStringSubmatch(curlCmd); m != nil {
		cookie = firstGroup(m)
	}
	if cookie == "" {
		cookie = headerCookie
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return &CurlHeaders{Headers: headers, Cookie: cookie}, nil
}

// Header looks up a header case-insensitively.
func (c *CurlHeaders) Header(name string) string {
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// APIToken returns the credential of an "Authorization: Token <key>" header.
func (c *CurlHeaders) APIToken() (string, error) {
	auth := c.Header("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "token") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: no API token in Authorization header", ErrMissingCredentials)
	}
	return strings.TrimSpace(token), nil
}

// CookieValue returns the named cookie from the parsed cookie string.
func (c *CurlHeaders) CookieValue(name string) string {
	for _, part := range strings.Split(c.Cookie, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == name {
			return v
		}
	}
	return ""
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}

func splitHeader(line string) (string, string, bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}
