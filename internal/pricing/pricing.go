// Package pricing computes what a submission costs.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// WordsPerUnit is the size of one billable block of text.
	WordsPerUnit = 500
	// MaxWordCount is the largest text accepted for pricing.
	MaxWordCount = 1_000_000
)

var ErrInvalidInput = errors.New("invalid pricing input")

// Price returns the total price in cents for a text of wordCount words,
// billed per started block of WordsPerUnit words.
func Price(wordCount int, unitPriceCents int64) (int64, error) {
	if wordCount <= 0 {
		return 0, fmt.Errorf("%w: word count must be positive, got %d", ErrInvalidInput, wordCount)
	}
	if wordCount > MaxWordCount {
		return 0, fmt.Errorf("%w: word count must be at most %d, got %d", ErrInvalidInput, MaxWordCount, wordCount)
	}
	if unitPriceCents <= 0 {
		return 0, fmt.Errorf("%w: unit price must be positive, got %d", ErrInvalidInput, unitPriceCents)
	}
	units := int64((wordCount-1)/WordsPerUnit + 1)
	if units > math.MaxInt64/unitPriceCents {
		return 0, fmt.Errorf("%w: price of %d units at %d overflows", ErrInvalidInput, units, unitPriceCents)
	}
	return units * unitPriceCents, nil
}

// CountWords counts whitespace separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// FormatPrice renders cents as a dollar amount, e.g. 1500 -> "$15.00".
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
