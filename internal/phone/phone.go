package phone

import "strings"

// Normalize reduces a user-entered phone number to the canonical digit
// string used as the user id. The rules follow the KZ/RU dialing
// conventions the portal serves:
//
//  1. strip every non-digit character
//  2. 11 digits starting with 8: replace the leading 8 with 7
//  3. 10 digits: prepend 7
//
// Normalize is idempotent for any valid 10/11 digit input.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	if len(digits) == 10 {
		digits = "7" + digits
	}
	return digits
}
