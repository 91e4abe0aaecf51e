// Package prompt reads and validates interactive terminal input. Core
// packages never prompt directly; commands gather input here and pass
// plain values down, which keeps every confirmation step scriptable in
// tests via the io.Reader variants.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
)

var au = aurora.NewAurora(true)

// DefaultPrompt prompts the user with text and returns the entered line,
// falling back to defaultValue when the user just presses enter.
func DefaultPrompt(promptText, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Printf("%s %s:\n", promptText, fmt.Sprintf("(%s: %s)", au.BrightGreen("default"), defaultValue))
	} else {
		fmt.Printf("%s:\n", promptText)
	}
	scanner := bufio.NewScanner(os.Stdin)
	if ok := scanner.Scan(); ok {
		item := scanner.Text()
		if item == "" {
			return defaultValue, nil
		}
		return item, nil
	}
	return "", errors.New("could not scan text input")
}

// ValidatePrompt requests input from the reader until the response passes
// the validation function.
func ValidatePrompt(r io.Reader, promptText string, validateFunc func(string) error) (string, error) {
	var responseValid bool
	var response string
	scanner := bufio.NewScanner(r)
	for !responseValid {
		fmt.Printf("%s:\n", au.Bold(promptText))
		if ok := scanner.Scan(); ok {
			item := scanner.Text()
			if err := validateFunc(item); err != nil {
				fmt.Printf("Entry not valid: %s\n", au.BrightRed(err.Error()))
			} else {
				responseValid = true
				response = item
			}
		} else {
			return "", errors.New("could not scan text input")
		}
	}
	return strings.TrimSpace(response), nil
}

// PasswordPrompt reads a password from the terminal with echo disabled,
// repeating until the input passes the validation function.
func PasswordPrompt(promptText string, validateFunc func(string) error) (string, error) {
	var responseValid bool
	var pwd string
	for !responseValid {
		fmt.Printf("%s: ", au.Bold(promptText))
		bytePassword, err := terminal.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", err
		}
		fmt.Println("")
		pwd = strings.TrimRight(string(bytePassword), "\r\n")
		if err := validateFunc(pwd); err != nil {
			fmt.Printf("Entry not valid: %s\n", au.BrightRed(err.Error()))
		} else {
			responseValid = true
		}
	}
	return pwd, nil
}

// Confirm asks a yes/no question and returns true only on an explicit yes.
// A declined confirm, EOF, or interrupt counts as no.
func Confirm(promptText string) (bool, error) {
	p := promptui.Prompt{
		Label:     promptText,
		IsConfirm: true,
	}
	_, err := p.Run()
	switch err {
	case nil:
		return true, nil
	case promptui.ErrAbort, promptui.ErrEOF, promptui.ErrInterrupt:
		return false, nil
	default:
		return false, err
	}
}
