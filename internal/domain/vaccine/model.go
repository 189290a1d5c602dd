package vaccine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type VaccineType string

const (
	TypeLiveAttenuated VaccineType = "live-attenuated"
	TypeInactivated    VaccineType = "inactivated"
	TypeViralVector    VaccineType = "viral-vector"
	TypeOther          VaccineType = "other"
)

type MandatoryStatus string

const (
	StatusMandatory      MandatoryStatus = "mandatory"
	StatusRecommended    MandatoryStatus = "recommended"
	StatusOptional       MandatoryStatus = "optional"
	StatusSpecialProgram MandatoryStatus = "special_program"
)

type EvidenceLevel string

const (
	EvidenceHigh     EvidenceLevel = "high"
	EvidenceModerate EvidenceLevel = "moderate"
	EvidenceLow      EvidenceLevel = "low"
)

// VerificationStatus is advisory. Only the verification cache reports
// "verified"; catalog records always start as needs_verification.
type VerificationStatus string

const (
	Verified          VerificationStatus = "verified"
	NeedsVerification VerificationStatus = "needs_verification"
)

var validTypes = map[VaccineType]bool{
	TypeLiveAttenuated: true, TypeInactivated: true, TypeViralVector: true, TypeOther: true,
}

var validMandatory = map[MandatoryStatus]bool{
	StatusMandatory: true, StatusRecommended: true, StatusOptional: true, StatusSpecialProgram: true,
}

var validEvidence = map[EvidenceLevel]bool{
	EvidenceHigh: true, EvidenceModerate: true, EvidenceLow: true,
}

// Record is one reference entry per vaccine or dose series.
type Record struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Synonyms           []string           `json:"synonyms"`
	VaccineType        VaccineType        `json:"vaccine_type"`
	TargetAgeGroups    []string           `json:"target_age_groups"`
	Schedule           []Dose             `json:"schedule"`
	DiseasesPrevented  []string           `json:"diseases_prevented"`
	Indications        []string           `json:"indications,omitempty"`
	Benefits           []string           `json:"benefits,omitempty"`
	CommonSideEffects  []string           `json:"common_side_effects,omitempty"`
	Contraindications  []string           `json:"contraindications,omitempty"`
	MandatoryStatus    MandatoryStatus    `json:"mandatory_status"`
	CostEstimate       CostEstimate       `json:"cost_estimate"`
	EvidenceLevel      EvidenceLevel      `json:"evidence_level"`
	Confidence         float64            `json:"confidence"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	Sources            []Source           `json:"sources"`
}

type CostEstimate struct {
	Public  string `json:"public"`
	Private string `json:"private"`
}

type Source struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	RetrievedDate time.Time `json:"retrieved_date"`
}

// Dose is a single administration in a vaccine's schedule. Timing is the
// human-readable label; Due carries the structured rule used for due dates.
type Dose struct {
	DoseNumber           int        `json:"dose_number"`
	Timing               string     `json:"timing"`
	Due                  DoseTiming `json:"due"`
	IntervalFromPrevious string     `json:"interval_from_previous,omitempty"`
	Notes                string     `json:"notes,omitempty"`
}

type TimingKind string

const (
	TimingFromBirth    TimingKind = "from_birth"
	TimingFromPrevious TimingKind = "from_previous"
	TimingAgeWindow    TimingKind = "age_window"
	TimingUnspecified  TimingKind = "unspecified"
)

// DoseTiming says how a dose's due date is anchored. Offset is used by
// from_birth and from_previous; AgeGroup by age_window.
type DoseTiming struct {
	Kind     TimingKind `json:"kind"`
	Offset   Offset     `json:"offset,omitempty"`
	AgeGroup string     `json:"age_group,omitempty"`
}

type OffsetUnit string

const (
	UnitDay   OffsetUnit = "d"
	UnitWeek  OffsetUnit = "w"
	UnitMonth OffsetUnit = "m"
	UnitYear  OffsetUnit = "y"
)

// Offset is a calendar offset such as 6 weeks or 9 months.
type Offset struct {
	Value int        `json:"value"`
	Unit  OffsetUnit `json:"unit"`
}

// ParseOffset parses the compact form used in seed data: "0d", "6w", "9m", "10y".
func ParseOffset(s string) (Offset, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 2 {
		return Offset{}, fmt.Errorf("invalid offset %q", s)
	}
	unit := OffsetUnit(s[len(s)-1:])
	switch unit {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
	default:
		return Offset{}, fmt.Errorf("invalid offset unit in %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return Offset{}, fmt.Errorf("invalid offset value in %q", s)
	}
	return Offset{Value: n, Unit: unit}, nil
}

// AddTo applies the offset using calendar arithmetic.
func (o Offset) AddTo(t time.Time) time.Time {
	switch o.Unit {
	case UnitWeek:
		return t.AddDate(0, 0, 7*o.Value)
	case UnitMonth:
		return t.AddDate(0, o.Value, 0)
	case UnitYear:
		return t.AddDate(o.Value, 0, 0)
	default:
		return t.AddDate(0, 0, o.Value)
	}
}

func (o Offset) String() string {
	return strconv.Itoa(o.Value) + string(o.Unit)
}
