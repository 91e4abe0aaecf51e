package prompt

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var errIncorrectPhrase = errors.New("input does not match wanted phrase")

// NotEmpty is a validation function that ensures the input is not empty and
// does not contain invalid unicode.
func NotEmpty(input string) error {
	if input == "" {
		return errors.New("input cannot be empty")
	}
	if !IsValidUnicode(input) {
		return errors.New("not valid unicode")
	}
	return nil
}

// ValidateYesOrNo ensures the user input either Y, y or N, n.
func ValidateYesOrNo(input string) error {
	if strings.ToLower(input) != "y" && strings.ToLower(input) != "n" {
		return errors.New("please enter y or n")
	}
	return nil
}

// ValidatePhrase checks whether the user input matches the wanted phrase,
// ignoring surrounding whitespace but not letter case.
func ValidatePhrase(input, wantedPhrase string) error {
	if strings.TrimSpace(input) != wantedPhrase {
		return errIncorrectPhrase
	}
	return nil
}

// IsValidUnicode checks if an input string is a valid unicode string comprised
// of only letters, numbers, punctuation, symbols, or spaces.
func IsValidUnicode(input string) bool {
	for _, char := range input {
		if !(unicode.IsLetter(char) ||
			unicode.IsNumber(char) ||
			unicode.IsPunct(char) ||
			unicode.IsSymbol(char) ||
			unicode.IsSpace(char)) {
			return false
		}
	}
	return true
}
