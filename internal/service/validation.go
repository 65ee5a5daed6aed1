package service

import "regexp"

const (
	maxDisplayNameLength = 50
	maxBoxNumberLength   = 50
)

var (
	// usernamePattern matches normalized usernames: lowercase letters,
	// digits, underscore; 2 to 30 characters.
	usernamePattern = regexp.MustCompile(`^[a-z0-9_]{2,30}$`)

	// pinPattern matches PINs: exactly 4 digits.
	pinPattern = regexp.MustCompile(`^\d{4}$`)
)

func validUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func validPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

func validDisplayName(name string) bool {
	return name != "" && len(name) <= maxDisplayNameLength
}

func validBoxNumber(number string) bool {
	return number != "" && len(number) <= maxBoxNumberLength
}
