package output

import (
	"strconv"

	"github.com/Edbro78/investeringsprognose/pkg/decimal"
)

// FormatCurrency formats whole kroner with grouped digits, as "1 250 000 kr".
func FormatCurrency(amount int64) string { return decimal.NewMoneyFromInt(amount).Format() }

// FormatAmount formats a float amount rounded to whole kroner, without the suffix.
func FormatAmount(amount float64) string { return decimal.NewMoney(amount).Grouped() }

// FormatPercentage formats a percentage with 2 decimals.
func FormatPercentage(pct float64) string { return decimal.FormatRate(pct, 2) + "%" }

func intToString(v int64) string { return strconv.FormatInt(v, 10) }

func boolToString(b bool) string { return strconv.FormatBool(b) }
