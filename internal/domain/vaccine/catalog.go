package vaccine

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidCatalog wraps every catalog invariant violation found at load.
var ErrInvalidCatalog = errors.New("invalid vaccine catalog")

// Catalog is the immutable set of vaccine reference records. It is safe for
// concurrent use because nothing mutates it after construction.
type Catalog struct {
	records []Record
	byID    map[string]int
}

// NewCatalog validates records and builds a catalog. Every record's
// verification status is reset to needs_verification.
func NewCatalog(records []Record) (*Catalog, error) {
	if err := Validate(records); err != nil {
		return nil, err
	}
	c := &Catalog{
		records: make([]Record, len(records)),
		byID:    make(map[string]int, len(records)),
	}
	for i, r := range records {
		r.VerificationStatus = NeedsVerification
		c.records[i] = r
		c.byID[r.ID] = i
	}
	return c, nil
}

// All returns every record in load order.
func (c *Catalog) All() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Catalog) Len() int { return len(c.records) }

// Get looks up a record by exact id.
func (c *Catalog) Get(id string) (Record, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// Search returns records whose name, synonyms or diseases prevented contain
// q, ignoring case. Results keep catalog order. A blank query is a substring
// of everything and returns the whole catalog.
func (c *Catalog) Search(q string) []Record {
	q = strings.TrimSpace(q)
	if q == "" {
		return c.All()
	}
	m := SubstringMatcher{}
	var out []Record
	for _, r := range c.records {
		if m.Match(r.Name, q) || anyContains(m, r.Synonyms, q) || anyContains(m, r.DiseasesPrevented, q) {
			out = append(out, r)
		}
	}
	return out
}

func anyContains(m Matcher, texts []string, q string) bool {
	for _, t := range texts {
		if m.Match(t, q) {
			return true
		}
	}
	return false
}

// Validate checks catalog invariants and returns all violations joined
// under ErrInvalidCatalog.
func Validate(records []Record) error {
	var errs []error
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		where := fmt.Sprintf("record %d (%s)", i, r.ID)
		if strings.TrimSpace(r.ID) == "" {
			errs = append(errs, fmt.Errorf("record %d: id is required", i))
		} else if seen[r.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id", where))
		}
		seen[r.ID] = true
		if strings.TrimSpace(r.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", where))
		}
		for _, s := range r.Synonyms {
			if strings.TrimSpace(s) == "" {
				errs = append(errs, fmt.Errorf("%s: empty synonym", where))
			}
		}
		for _, s := range r.Contraindications {
			if strings.TrimSpace(s) == "" {
				errs = append(errs, fmt.Errorf("%s: empty contraindication", where))
			}
		}
		if !validTypes[r.VaccineType] {
			errs = append(errs, fmt.Errorf("%s: invalid vaccine type %q", where, r.VaccineType))
		}
		if !validMandatory[r.MandatoryStatus] {
			errs = append(errs, fmt.Errorf("%s: invalid mandatory status %q", where, r.MandatoryStatus))
		}
		if !validEvidence[r.EvidenceLevel] {
			errs = append(errs, fmt.Errorf("%s: invalid evidence level %q", where, r.EvidenceLevel))
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			errs = append(errs, fmt.Errorf("%s: confidence %v outside [0,1]", where, r.Confidence))
		}
		if len(r.TargetAgeGroups) == 0 {
			errs = append(errs, fmt.Errorf("%s: at least one target age group is required", where))
		}
		for _, g := range r.TargetAgeGroups {
			if _, ok := AgeGroups[g]; !ok {
				errs = append(errs, fmt.Errorf("%s: unknown age group %q", where, g))
			}
		}
		errs = append(errs, validateSchedule(where, r.Schedule)...)
		for _, s := range r.Sources {
			if u, err := url.Parse(s.URL); err != nil || u.Hostname() == "" {
				errs = append(errs, fmt.Errorf("%s: invalid source url %q", where, s.URL))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}

func validateSchedule(where string, doses []Dose) []error {
	var errs []error
	if len(doses) == 0 {
		return []error{fmt.Errorf("%s: schedule is empty", where)}
	}
	if doses[0].DoseNumber != 1 {
		errs = append(errs, fmt.Errorf("%s: schedule must start at dose 1, got %d", where, doses[0].DoseNumber))
	}
	for i, d := range doses {
		if i > 0 && d.DoseNumber <= doses[i-1].DoseNumber {
			errs = append(errs, fmt.Errorf("%s: dose numbers must strictly increase (%d after %d)", where, d.DoseNumber, doses[i-1].DoseNumber))
		}
		switch d.Due.Kind {
		case TimingFromBirth, TimingUnspecified:
		case TimingFromPrevious:
			if i == 0 {
				errs = append(errs, fmt.Errorf("%s: first dose cannot be timed from a previous dose", where))
			}
		case TimingAgeWindow:
			if _, ok := AgeGroups[d.Due.AgeGroup]; !ok {
				errs = append(errs, fmt.Errorf("%s: dose %d references unknown age group %q", where, d.DoseNumber, d.Due.AgeGroup))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: dose %d has invalid timing kind %q", where, d.DoseNumber, d.Due.Kind))
		}
	}
	return errs
}
