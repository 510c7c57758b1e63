// redact маскирует чувствительные значения перед записью в лог.
package redact

import "strings"

// Login маскирует логин пользователя: e-mail сохраняет домен,
// username — первые два символа.
func Login(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "***"
	}

	if i := strings.LastIndex(s, "@"); i >= 0 {
		local, domain := s[:i], s[i+1:]
		if domain == "" {
			return "***"
		}

		return prefix(local) + "@" + domain
	}

	return prefix(s)
}

// Token оставляет от токена только последние 4 символа, чтобы различать сессии в логах.
func Token(s string) string {
	if len(s) <= 8 {
		return "[REDACTED_TOKEN]"
	}

	return "[REDACTED_TOKEN]…" + s[len(s)-4:]
}

func Password() string { return "[REDACTED_PASSWORD]" }

func prefix(s string) string {
	if len(s) > 2 {
		return s[:2] + "***"
	}

	return "***"
}
