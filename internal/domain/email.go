package domain

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail is returned for input that does not parse as a bare address.
var ErrInvalidEmail = errors.New("invalid email address")

// NormalizeEmail validates s as a plain email address and returns it with the
// domain part lowercased. Display names ("John <j@x.com>") are rejected: users
// are expected to send the address itself.
func NormalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", ErrInvalidEmail
	}
	at := strings.LastIndex(addr.Address, "@")
	if at < 0 {
		return "", ErrInvalidEmail
	}
	local, dom := addr.Address[:at], addr.Address[at+1:]
	if !strings.Contains(dom, ".") {
		return "", ErrInvalidEmail
	}
	return local + "@" + strings.ToLower(dom), nil
}
