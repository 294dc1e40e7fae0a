// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPostTitle      = 5
	MaxPostTitle      = 200
	MinPostContent    = 20
	MinCommentContent = 3
	MaxCommentContent = 1000
	MaxBio            = 500
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidatePassword checks length and rejects purely numeric passwords.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}
	allDigits := strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1
	if allDigits {
		return fmt.Errorf("password must not be entirely numeric")
	}
	return nil
}

// ValidateUsername allows letters, digits and @.+-_ up to 150 characters.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > 150 {
		return fmt.Errorf("username must not exceed 150 characters")
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, and @/./+/-/_ characters")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePostTitle expects an already trimmed title.
func ValidatePostTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < MinPostTitle {
		return fmt.Errorf("title must be at least %d characters long", MinPostTitle)
	}
	if n > MaxPostTitle {
		return fmt.Errorf("title must not exceed %d characters", MaxPostTitle)
	}
	return nil
}

// ValidatePostContent expects already trimmed content.
func ValidatePostContent(content string) error {
	if utf8.RuneCountInString(content) < MinPostContent {
		return fmt.Errorf("content must be at least %d characters long", MinPostContent)
	}
	return nil
}

// ValidateCommentContent expects already trimmed content.
func ValidateCommentContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < MinCommentContent {
		return fmt.Errorf("comment must be at least %d characters long", MinCommentContent)
	}
	if n > MaxCommentContent {
		return fmt.Errorf("comment must not exceed %d characters", MaxCommentContent)
	}
	return nil
}

// ValidateBio expects an already trimmed bio.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBio {
		return fmt.Errorf("bio too long (max %d characters)", MaxBio)
	}
	return nil
}
