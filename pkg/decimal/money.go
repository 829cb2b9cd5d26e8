package decimal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Money represents an amount in whole Norwegian kroner
type Money struct {
	decimal.Decimal
}

// NewMoney creates a new Money instance from a float64
func NewMoney(value float64) Money {
	return Money{decimal.NewFromFloat(value)}
}

// NewMoneyFromInt creates a new Money instance from whole kroner
func NewMoneyFromInt(value int64) Money {
	return Money{decimal.NewFromInt(value)}
}

// NewMoneyFromString parses an amount as people write it: digit groups may be
// separated by spaces (including no-break spaces) and a comma may serve as the
// decimal separator. "10 000 000", "3,75" and "-250000" are all accepted.
func NewMoneyFromString(value string) (Money, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
	if strings.Count(cleaned, ",") == 1 && !strings.Contains(cleaned, ".") {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return Money{d}, nil
}

// Round rounds to whole kroner, halves away from zero
func (m Money) Round() Money {
	return Money{m.Decimal.Round(0)}
}

// Add adds another Money amount
func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Sub subtracts another Money amount
func (m Money) Sub(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// IsZero checks if the amount is zero
func (m Money) IsZero() bool {
	return m.Decimal.IsZero()
}

// IsNegative checks if the amount is negative
func (m Money) IsNegative() bool {
	return m.Decimal.IsNegative()
}

// Zero returns a zero Money amount
func Zero() Money {
	return Money{decimal.Zero}
}

// String returns the amount rounded to whole kroner without grouping
func (m Money) String() string {
	return m.Round().Decimal.StringFixed(0)
}

// Grouped returns the whole-kroner amount with digits grouped in threes by
// spaces, the way amounts are written in Norwegian: "-1 250 000".
func (m Money) Grouped() string {
	return GroupDigits(m.String())
}

// Format formats the money amount with the currency suffix
func (m Money) Format() string {
	return m.Grouped() + " kr"
}

// groupingFormat groups thousands by spaces and drops the decimals.
const groupingFormat = "# ###,"

// GroupDigits inserts a space between every group of three digits of the integer
// part of a plain decimal string. Strings that do not parse are returned as is.
func GroupDigits(s string) string {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	n, err := strconv.Atoi(intPart)
	if err != nil {
		return s
	}
	grouped := humanize.FormatInteger(groupingFormat, n)
	if n == 0 && strings.HasPrefix(intPart, "-") {
		grouped = "-" + grouped
	}
	return grouped + frac
}

// FormatRate formats a percentage with a fixed number of decimals, such as
// "37.84" or "8.0".
func FormatRate(rate float64, places int32) string {
	return decimal.NewFromFloat(rate).StringFixed(places)
}
