// Package prescription extracts medicines from free-form prescription text.
package prescription

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	defaultDosage   = "1 tablet"
	defaultDuration = 7

	maxFallbackMedicines = 5
	maxMedicines         = 10
)

var defaultTimes = []string{"08:00"}

// knownMedicines is matched in order; the first name found in a line wins.
var knownMedicines = []string{
	"Metformin", "Glucophage", "Aspirin", "Paracetamol", "Atorvastatin",
	"Lisinopril", "Amlodipine", "Omeprazole", "Metoprolol", "Losartan",
	"Ramipril", "Cetirizine", "Pantoprazole", "Vitamin", "Calcium", "Iron",
	"Amoxicillin", "Ciprofloxacin", "Azithromycin", "Doxycycline",
	"Levothyroxine", "Insulin", "Glipizide", "Januvia", "Warfarin",
}

type timingRule struct {
	keyword string
	times   []string
}

// timingRules is scanned in order and the last matching keyword wins, so
// "twice daily (morning, evening)" resolves to the twice-a-day slots.
var timingRules = []timingRule{
	{"morning", []string{"08:00"}},
	{"afternoon", []string{"13:00"}},
	{"evening", []string{"18:00"}},
	{"night", []string{"21:00"}},
	{"twice", []string{"08:00", "20:00"}},
	{"thrice", []string{"08:00", "14:00", "20:00"}},
	{"breakfast", []string{"08:00"}},
	{"lunch", []string{"13:00"}},
	{"dinner", []string{"19:30"}},
	{"bedtime", []string{"21:30"}},
}

// ParsedMedicine is one medicine extracted from prescription text.
type ParsedMedicine struct {
	Name         string   `json:"name"`
	Dosage       string   `json:"dosage"`
	Times        []string `json:"times"`
	DurationDays int      `json:"duration"`
}

// Parser extracts medicines from prescription text.
type Parser struct {
	dosageRe   *regexp.Regexp
	durationRe *regexp.Regexp
}

func NewParser() *Parser {
	return &Parser{
		dosageRe:   regexp.MustCompile(`(?i)(\d+\s*mg|\d+\s*ml|\d+\s*tablet|\d+\s*cap)`),
		durationRe: regexp.MustCompile(`(?i)(\d+)\s*(day|week|month)`),
	}
}

// Parse scans the text line by line for known medicine names, dosages,
// timing keywords and durations. A duration on a later line applies to the
// most recent medicine. When no known name matches anywhere, a generic
// capitalized-word pass runs instead. At most 10 medicines are returned.
func (p *Parser) Parse(text string) []ParsedMedicine {
	lines := strings.Split(text, "\n")

	var medicines []ParsedMedicine
	var current *ParsedMedicine

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		for _, med := range knownMedicines {
			if !strings.Contains(lower, strings.ToLower(med)) {
				continue
			}
			if current != nil {
				medicines = append(medicines, *current)
			}
			current = &ParsedMedicine{
				Name:         med,
				Dosage:       p.dosage(line),
				Times:        append([]string(nil), defaultTimes...),
				DurationDays: defaultDuration,
			}
			for _, rule := range timingRules {
				if strings.Contains(lower, rule.keyword) {
					current.Times = append([]string(nil), rule.times...)
				}
			}
			break
		}

		if current != nil {
			if m := p.durationRe.FindStringSubmatch(line); m != nil {
				n, _ := strconv.Atoi(m[1])
				switch strings.ToLower(m[2]) {
				case "week":
					n *= 7
				case "month":
					n *= 30
				}
				current.DurationDays = n
			}
		}
	}

	if current != nil {
		medicines = append(medicines, *current)
	}

	if len(medicines) == 0 {
		medicines = p.fallback(lines)
	}

	if len(medicines) > maxMedicines {
		medicines = medicines[:maxMedicines]
	}
	return medicines
}

func (p *Parser) dosage(line string) string {
	if m := p.dosageRe.FindString(line); m != "" {
		return m
	}
	return defaultDosage
}

// fallback treats any capitalized word longer than four characters, except
// the last word of a line, as a medicine name candidate.
func (p *Parser) fallback(lines []string) []ParsedMedicine {
	var medicines []ParsedMedicine
	for _, line := range lines {
		words := strings.Fields(line)
		for i, w := range words {
			runes := []rune(w)
			if !unicode.IsUpper(runes[0]) || len(runes) <= 4 || i >= len(words)-1 {
				continue
			}
			medicines = append(medicines, ParsedMedicine{
				Name:         w,
				Dosage:       p.dosage(line),
				Times:        append([]string(nil), defaultTimes...),
				DurationDays: defaultDuration,
			})
			if len(medicines) >= maxFallbackMedicines {
				return medicines
			}
		}
	}
	return medicines
}
