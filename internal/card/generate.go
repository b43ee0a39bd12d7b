package card

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	numberLength    = 16
	cvvLength       = 3
	maxExpiryMonths = 60
)

// generateNumber produces a 16-digit Luhn-valid card number.
func generateNumber() string {
	digits := make([]int, numberLength)
	for i := 0; i < numberLength-1; i++ {
		digits[i] = rand.IntN(10)
	}
	digits[numberLength-1] = luhnCheckDigit(digits[:numberLength-1])

	out := make([]byte, numberLength)
	for i, d := range digits {
		out[i] = byte('0' + d)
	}
	return string(out)
}

// generateCVV produces a 3-digit security code.
func generateCVV() string {
	return fmt.Sprintf("%03d", rand.IntN(1000))
}

// generateExpiry picks an MM/YY expiry 1-60 months from now.
func generateExpiry(now time.Time) string {
	months := 1 + rand.IntN(maxExpiryMonths)
	expiry := now.AddDate(0, months, 0)
	return fmt.Sprintf("%02d/%02d", int(expiry.Month()), expiry.Year()%100)
}

// ValidNumber reports whether number is 16 digits and passes the Luhn check.
func ValidNumber(number string) bool {
	if len(number) != numberLength {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		ch := number[i]
		if ch < '0' || ch > '9' {
			return false
		}
		n := int(ch - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// luhnCheckDigit computes the digit that makes the sequence Luhn-valid.
func luhnCheckDigit(digits []int) int {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		n := digits[i]
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return (10 - sum%10) % 10
}
