package validator

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	skuRegex   = regexp.MustCompile(`^[A-Za-z0-9\-_.]{1,64}$`)
)

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func digitsAndPlus(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '+' {
			return r
		}
		return -1
	}, s)
}

func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(digitsAndPlus(phone))
}

// FormatPhone normalizes a phone number to the +<country><number> form.
// Numbers without a country code are treated as Russian.
func FormatPhone(phone string) string {
	clean := digitsAndPlus(phone)

	switch {
	case strings.HasPrefix(clean, "+"):
		return clean
	case strings.HasPrefix(clean, "8") && len(clean) == 11:
		return "+7" + clean[1:]
	case strings.HasPrefix(clean, "7") && len(clean) == 11:
		return "+" + clean
	default:
		return "+7" + clean
	}
}

func ValidateNamePart(name string) bool {
	if len([]rune(name)) < 2 {
		return false
	}

	for _, r := range name {
		if !unicode.IsLetter(r) && r != '-' && r != ' ' && r != '\'' {
			return false
		}
	}

	return true
}

// FormatName capitalizes every word and every hyphen-separated part of it.
func FormatName(name string) string {
	parts := strings.Fields(name)
	for i, part := range parts {
		subparts := strings.Split(part, "-")
		for j, sub := range subparts {
			runes := []rune(strings.ToLower(sub))
			if len(runes) > 0 {
				runes[0] = unicode.ToUpper(runes[0])
			}
			subparts[j] = string(runes)
		}
		parts[i] = strings.Join(subparts, "-")
	}
	return strings.Join(parts, " ")
}

func ValidateTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func ValidateSKU(sku string) bool {
	return skuRegex.MatchString(sku)
}

func SanitizeString(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '<' || r == '>' || r == '&' || r == '"' || r == '\'' || r == '`' || r == ';' {
			return -1
		}
		return r
	}, s))
}
