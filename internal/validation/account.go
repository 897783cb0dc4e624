// Package validation holds input validation for accounts, platforms and posts.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLen = 10
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	maxEmailLen      = 254
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{2,31}$`)

// NormalizeUsername lowercases and trims a username. Logins compare
// normalized forms.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername accepts 3-32 lowercase letters, digits, '.', '_' or '-',
// starting with a letter or digit. Pass a normalized username.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username %q must be 3-32 lowercase letters, digits, '.', '_' or '-'", username)
	}
	return nil
}

// ValidateEmail accepts a bare address such as ada@example.com.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLen {
		return errors.New("email must be at most 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("invalid email %q", email)
	}
	at := strings.LastIndexByte(email, '@')
	if domain := email[at+1:]; !strings.Contains(domain, ".") || strings.HasSuffix(domain, ".") {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}

// ValidatePassword checks a new password for the account named username.
// It needs at least one letter and one non-letter and must not contain the
// username.
func ValidatePassword(password, username string) error {
	switch {
	case utf8.RuneCountInString(password) < minPasswordLen:
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	case len(password) > maxPasswordBytes:
		return fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	}

	var letters, others int
	for _, r := range password {
		if unicode.IsLetter(r) {
			letters++
		} else if !unicode.IsSpace(r) {
			others++
		}
	}
	if letters == 0 || others == 0 {
		return errors.New("password must mix letters with digits or symbols")
	}

	if u := NormalizeUsername(username); len(u) >= 3 && strings.Contains(strings.ToLower(password), u) {
		return errors.New("password must not contain the username")
	}
	return nil
}
