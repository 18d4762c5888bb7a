// Package gtin validates and formats EAN-13 article numbers.
package gtin

import (
	"errors"
	"strings"
)

var (
	ErrLength   = errors.New("EAN-13 must be exactly 13 digits")
	ErrChecksum = errors.New("invalid EAN-13 check digit")
)

// Clean strips everything that is not a digit.
func Clean(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CheckDigit computes the GS1 check digit for the first 12 digits of an EAN-13.
// digits must hold at least 12 ASCII digits.
func CheckDigit(digits string) int {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	return (10 - sum%10) % 10
}

// Validate checks an EAN-13 after removing separators. It returns the cleaned code.
func Validate(code string) (string, error) {
	cleaned := Clean(code)
	if len(cleaned) != 13 {
		return "", ErrLength
	}
	if CheckDigit(cleaned) != int(cleaned[12]-'0') {
		return "", ErrChecksum
	}
	return cleaned, nil
}

// Valid reports whether code is a valid EAN-13.
func Valid(code string) bool {
	_, err := Validate(code)
	return err == nil
}

// Format renders a 13 digit code as "7 310865 004703". Other lengths come back cleaned.
func Format(code string) string {
	cleaned := Clean(code)
	if len(cleaned) != 13 {
		return cleaned
	}
	return cleaned[:1] + " " + cleaned[1:7] + " " + cleaned[7:]
}
