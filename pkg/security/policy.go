package security

import (
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

var commonPasswords = map[string]struct{}{
	"password":  {},
	"password1": {},
	"12345678":  {},
	"123456789": {},
	"qwerty123": {},
	"iloveyou":  {},
	"admin123":  {},
	"letmein1":  {},
	"welcome1":  {},
	"inventory": {},
}

// CheckPasswordPolicy returns the reasons a password is rejected, or nil when
// it is acceptable. Identity values (username, email) must not be contained
// in the password.
func CheckPasswordPolicy(password string, identity ...string) []string {
	var problems []string
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, "password must contain at least 8 characters")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "password cannot be entirely numeric")
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, "password is too common")
	}
	lowered := strings.ToLower(password)
	for _, value := range identity {
		value = strings.ToLower(strings.TrimSpace(value))
		if local, _, ok := strings.Cut(value, "@"); ok {
			value = local
		}
		if len(value) >= 3 && strings.Contains(lowered, value) {
			problems = append(problems, "password is too similar to the account details")
			break
		}
	}
	return problems
}
