// Package paramtext reads and writes plans in the numbered plain-text form advisors
// paste between sessions:
//
//	1 Portefølje I : 10 000 000
//	19a Hendelse 1 startår : 2030
//	27 Skatteberegning : På
//
// Each line is "<number>[suffix] <label> : <value>". The label is informational;
// the number and suffix select the field.
package paramtext

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Edbro78/investeringsprognose/internal/domain"
	"github.com/Edbro78/investeringsprognose/pkg/decimal"
)

// ErrMalformedLine is returned when a numbered line carries a value that cannot
// be read for its field.
var ErrMalformedLine = errors.New("malformed line")

const (
	defaultEventLabel = "Hendelse"
	firstEventLine    = 19
)

var linePattern = regexp.MustCompile(`^(\d+)([a-z]?)\s+(.+?)\s*:\s*(.+)$`)

// Export renders every parameter as one numbered line. Empty event slots are
// written with their defaults so the output always has the same shape.
func Export(p domain.SimulationParameters) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	amount := func(v float64) string { return decimal.NewMoney(v).Grouped() }

	add("1 Portefølje I : %s", amount(p.Portfolio1))
	add("2 Aksjeandel Portefølje I : %s", amount(p.Portfolio1StockAllocation))
	add("3 Portefølje II : %s", amount(p.Portfolio2))
	add("4 Aksjeandel Portefølje II : %s", amount(p.Portfolio2StockAllocation))
	add("5 Likviditetsfond : %s", amount(p.LiquidityFund))
	add("6 Årlig sparing : %s", amount(p.AnnualSavings))
	add("7 Innskutt kapital : %s", amount(p.InvestedCapital))
	add("8 Antall år investeringsperiode : %d", p.InvestmentYears)
	add("9 Antall år med utbetaling : %d", p.PayoutYears)
	add("10 Ønsket årlig uttak til Forbruk : %s", amount(p.DesiredConsumptionPayout))
	add("11 Ønsket årlig uttak til Formuesskatt : %s", amount(p.DesiredWealthTaxPayout))
	add("12 Forventet avkastning aksjer : %s", decimal.FormatRate(p.StockReturnRate, 1))
	add("13 Forventet avkastning renter : %s", decimal.FormatRate(p.BondReturnRate, 1))
	add("14 Forventet KPI : %s", decimal.FormatRate(p.KPIRate, 1))
	add("15 Rådgivningshonorar : %s", decimal.FormatRate(p.AdvisoryFeeRate, 2))
	add("16 Skjermingsrente : %s", decimal.FormatRate(p.ShieldingRate, 2))
	add("17 Utbytteskatt : %s", decimal.FormatRate(p.StockTaxRate, 2))
	add("18 Kapitalskatt : %s", decimal.FormatRate(p.BondTaxRate, 2))

	startYear := p.StartYear
	if startYear == 0 {
		startYear = domain.DefaultStartYear
	}
	for i := 0; i < domain.MaxEvents; i++ {
		e := domain.Event{StartYear: startYear, EndYear: startYear, AffectsInvestedCapital: true, Label: defaultEventLabel}
		if i < len(p.Events) {
			e = p.Events[i]
			if e.Label == "" {
				e.Label = defaultEventLabel
			}
		}
		n := firstEventLine + i
		add("%d Hendelse %d beløp : %s", n, i+1, amount(e.Amount))
		add("%da Hendelse %d startår : %d", n, i+1, e.StartYear)
		add("%db Hendelse %d sluttår : %d", n, i+1, e.EndYear)
		add("%dc Hendelse %d påvirker innskutt kapital : %s", n, i+1, yesNo(e.AffectsInvestedCapital))
		add("%dd Hendelse %d type : %s", n, i+1, e.Label)
	}

	add("23 Målsøk utbetaling resultat : %s", amount(p.GoalSeekPayoutResult))
	add("24 Målsøk Portefølje I resultat : %s", amount(p.GoalSeekPortfolio1Result))
	add("25 Investortype : %s", investorLabel(p.InvestorType))
	add("26 utsatt skatt på renter : %s", yesNo(p.DeferredInterestTax))
	add("27 Skatteberegning : %s", onOff(p.TaxCalculationEnabled))

	return strings.Join(lines, "\n")
}

// Import applies every recognised line of text on top of base and returns the
// result, normalized. Lines without a leading number are skipped, as are numbers
// outside 1-27. Event slots whose amount ends up zero are dropped.
func Import(text string, base domain.SimulationParameters) (domain.SimulationParameters, error) {
	p := base.Clone()

	var slots [domain.MaxEvents]domain.Event
	used := [domain.MaxEvents]bool{}
	for i := 0; i < len(p.Events) && i < domain.MaxEvents; i++ {
		slots[i] = p.Events[i]
		used[i] = true
	}
	eventsTouched := false

	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		suffix, value := m[2], strings.TrimSpace(m[4])

		fail := func(err error) error {
			return fmt.Errorf("line %d (%s%s): %w: %v", lineNo+1, m[1], suffix, ErrMalformedLine, err)
		}

		if num >= firstEventLine && num < firstEventLine+domain.MaxEvents {
			idx := num - firstEventLine
			if !used[idx] {
				start := p.StartYear
				if start == 0 {
					start = domain.DefaultStartYear
				}
				slots[idx] = domain.Event{StartYear: start, EndYear: start, AffectsInvestedCapital: true, Label: defaultEventLabel}
				used[idx] = true
			}
			eventsTouched = true
			if err := applyEventField(&slots[idx], suffix, value, p.StartYear); err != nil {
				return base, fail(err)
			}
			continue
		}
		if suffix != "" {
			continue
		}
		if err := applyField(&p, num, value); err != nil {
			return base, fail(err)
		}
	}

	if eventsTouched {
		events := make([]domain.Event, 0, domain.MaxEvents)
		for i, e := range slots {
			if used[i] && e.Amount != 0 {
				events = append(events, e)
			}
		}
		p.Events = events
	}
	return p.Normalize(), nil
}

func applyField(p *domain.SimulationParameters, num int, value string) error {
	var target *float64
	switch num {
	case 1:
		target = &p.Portfolio1
	case 2:
		target = &p.Portfolio1StockAllocation
	case 3:
		target = &p.Portfolio2
	case 4:
		target = &p.Portfolio2StockAllocation
	case 5:
		target = &p.LiquidityFund
	case 6:
		target = &p.AnnualSavings
	case 7:
		target = &p.InvestedCapital
	case 8, 9:
		years, err := parseInt(value)
		if err != nil {
			return err
		}
		if num == 8 {
			p.InvestmentYears = years
		} else {
			p.PayoutYears = years
		}
		return nil
	case 10:
		target = &p.DesiredConsumptionPayout
	case 11:
		target = &p.DesiredWealthTaxPayout
	case 12:
		target = &p.StockReturnRate
	case 13:
		target = &p.BondReturnRate
	case 14:
		target = &p.KPIRate
	case 15:
		target = &p.AdvisoryFeeRate
	case 16:
		target = &p.ShieldingRate
	case 17:
		target = &p.StockTaxRate
	case 18:
		target = &p.BondTaxRate
	case 23:
		target = &p.GoalSeekPayoutResult
	case 24:
		target = &p.GoalSeekPortfolio1Result
	case 25:
		t, err := parseInvestorType(value)
		if err != nil {
			return err
		}
		p.InvestorType = t
		return nil
	case 26:
		p.DeferredInterestTax = parseBool(value)
		return nil
	case 27:
		p.TaxCalculationEnabled = parseBool(value)
		return nil
	default:
		return nil
	}

	v, err := parseNumber(value)
	if err != nil {
		return err
	}
	*target = v
	return nil
}

func applyEventField(e *domain.Event, suffix, value string, startYear int) error {
	if startYear == 0 {
		startYear = domain.DefaultStartYear
	}
	switch suffix {
	case "":
		v, err := parseNumber(value)
		if err != nil {
			return err
		}
		e.Amount = v
	case "a", "b":
		year, err := parseInt(value)
		if err != nil {
			return err
		}
		if year == 0 {
			year = startYear
		}
		if suffix == "a" {
			e.StartYear = year
		} else {
			e.EndYear = year
		}
	case "c":
		e.AffectsInvestedCapital = parseBool(value)
	case "d":
		e.Label = value
	}
	return nil
}

func parseNumber(value string) (float64, error) {
	m, err := decimal.NewMoneyFromString(value)
	if err != nil {
		return 0, err
	}
	return m.InexactFloat64(), nil
}

func parseInt(value string) (int, error) {
	m, err := decimal.NewMoneyFromString(value)
	if err != nil {
		return 0, err
	}
	return int(m.Round().IntPart()), nil
}

// parseBool accepts Ja and På (any case) as true; everything else is false.
func parseBool(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "ja" || v == "på"
}

func parseInvestorType(value string) (domain.InvestorType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "privat", "private":
		return domain.InvestorPrivate, nil
	case "as", "corporate":
		return domain.InvestorCorporate, nil
	}
	return "", fmt.Errorf("unknown investor type %q", value)
}

func investorLabel(t domain.InvestorType) string {
	if t == domain.InvestorCorporate {
		return "AS"
	}
	return "Privat"
}

func yesNo(b bool) string {
	if b {
		return "Ja"
	}
	return "Nei"
}

func onOff(b bool) string {
	if b {
		return "På"
	}
	return "Av"
}
