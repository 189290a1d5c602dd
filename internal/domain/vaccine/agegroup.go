package vaccine

import "math"

// AverageMonthDays is the month length used to turn an age in days into
// whole months. It drifts by about a day per month against the calendar.
const AverageMonthDays = 30.44

// AgeRange is an inclusive eligibility window in whole months of age.
// OpensAt is the nominal age the window stands for and anchors age_window
// due dates.
type AgeRange struct {
	OpensAt   int `json:"opens_at"`
	MinMonths int `json:"min_months"`
	MaxMonths int `json:"max_months"`
}

func (r AgeRange) Contains(months int) bool {
	return months >= r.MinMonths && months <= r.MaxMonths
}

// AgeGroups maps an age-group tag to its window. Infant windows open one
// month ahead of the nominal age so that doses due in the coming weeks are
// surfaced before they fall due.
var AgeGroups = map[string]AgeRange{
	"birth":      {OpensAt: 0, MinMonths: 0, MaxMonths: 12},
	"6w":         {OpensAt: 1, MinMonths: 0, MaxMonths: 3},
	"6-8w":       {OpensAt: 1, MinMonths: 0, MaxMonths: 3},
	"10w":        {OpensAt: 2, MinMonths: 1, MaxMonths: 4},
	"14w":        {OpensAt: 3, MinMonths: 2, MaxMonths: 5},
	"6m":         {OpensAt: 6, MinMonths: 5, MaxMonths: 8},
	"9m":         {OpensAt: 9, MinMonths: 8, MaxMonths: 12},
	"9-12m":      {OpensAt: 9, MinMonths: 8, MaxMonths: 12},
	"12m":        {OpensAt: 12, MinMonths: 11, MaxMonths: 15},
	"16-24m":     {OpensAt: 16, MinMonths: 15, MaxMonths: 24},
	"2y":         {OpensAt: 24, MinMonths: 23, MaxMonths: 36},
	"4-6y":       {OpensAt: 48, MinMonths: 47, MaxMonths: 83},
	"9-14y":      {OpensAt: 108, MinMonths: 108, MaxMonths: 179},
	"10y":        {OpensAt: 120, MinMonths: 119, MaxMonths: 131},
	"16y":        {OpensAt: 192, MinMonths: 191, MaxMonths: 203},
	"adolescent": {OpensAt: 120, MinMonths: 120, MaxMonths: 215},
	"adult":      {OpensAt: 216, MinMonths: 216, MaxMonths: 719},
	"60+":        {OpensAt: 720, MinMonths: 720, MaxMonths: 1800},
	"65+":        {OpensAt: 780, MinMonths: 780, MaxMonths: 1800},
}

// AgeInMonths returns floor(days / AverageMonthDays). Negative inputs yield -1.
func AgeInMonths(days int) int {
	if days < 0 {
		return -1
	}
	return int(math.Floor(float64(days) / AverageMonthDays))
}

// EligibleAt reports whether any of the record's target age groups contains
// the given age. Unknown tags never match.
func (r Record) EligibleAt(months int) bool {
	for _, g := range r.TargetAgeGroups {
		if rng, ok := AgeGroups[g]; ok && rng.Contains(months) {
			return true
		}
	}
	return false
}
