package flows

import (
	"strconv"
	"strings"
	"unicode"
)

// ProcessInput splits the raw text by the separator, trims every item,
// capitalizes the first letter, and drops empties and duplicates while
// preserving order.
func ProcessInput(raw, sep string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, sep) {
		item := Capitalize(strings.TrimSpace(part))
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Capitalize upper-cases the first rune of the string.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// TransformName shortens "Иванов Иван Иванович" to "Иванов И. И.".
// Inputs with fewer than two words are returned trimmed as-is.
func TransformName(full string) string {
	words := strings.Fields(full)
	if len(words) < 2 {
		return strings.TrimSpace(full)
	}
	parts := []string{words[0]}
	for _, w := range words[1:] {
		r := []rune(w)
		parts = append(parts, string(r[0])+".")
	}
	return strings.Join(parts, " ")
}

// CheckInteger parses a non-negative integer answer.
func CheckInteger(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// CheckPhone validates a Russian phone number: 11 digits starting with 79
// or 89, or 10 digits starting with 9. Separators and a leading plus are
// stripped first.
func CheckPhone(s string) bool {
	digits := phoneDigits(s)
	switch len(digits) {
	case 11:
		return strings.HasPrefix(digits, "79") || strings.HasPrefix(digits, "89")
	case 10:
		return strings.HasPrefix(digits, "9")
	default:
		return false
	}
}

// StandardizePhone normalizes a valid phone number to the +7XXXXXXXXXX form.
func StandardizePhone(s string) string {
	digits := phoneDigits(s)
	if len(digits) == 10 {
		return "+7" + digits
	}
	return "+7" + digits[1:]
}

func phoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
