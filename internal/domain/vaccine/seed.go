package vaccine

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type seedFile struct {
	Version  string       `yaml:"version"`
	Vaccines []seedRecord `yaml:"vaccines"`
}

type seedRecord struct {
	ID                 string       `yaml:"id"`
	Name               string       `yaml:"name"`
	Synonyms           []string     `yaml:"synonyms"`
	Type               string       `yaml:"type"`
	AgeGroups          []string     `yaml:"age_groups"`
	Schedule           []seedDose   `yaml:"schedule"`
	Diseases           []string     `yaml:"diseases"`
	Indications        []string     `yaml:"indications"`
	Benefits           []string     `yaml:"benefits"`
	SideEffects        []string     `yaml:"side_effects"`
	Contraindications  []string     `yaml:"contraindications"`
	Mandatory          string       `yaml:"mandatory"`
	Cost               seedCost     `yaml:"cost"`
	Evidence           string       `yaml:"evidence"`
	Confidence         float64      `yaml:"confidence"`
	VerificationStatus string       `yaml:"verification_status"`
	Sources            []seedSource `yaml:"sources"`
}

type seedDose struct {
	Dose     int     `yaml:"dose"`
	Timing   string  `yaml:"timing"`
	Interval string  `yaml:"interval"`
	Notes    string  `yaml:"notes"`
	Due      seedDue `yaml:"due"`
}

type seedDue struct {
	FromBirth    string `yaml:"from_birth"`
	FromPrevious string `yaml:"from_previous"`
	AgeWindow    string `yaml:"age_window"`
}

type seedCost struct {
	Public  string `yaml:"public"`
	Private string `yaml:"private"`
}

type seedSource struct {
	Title     string `yaml:"title"`
	URL       string `yaml:"url"`
	Retrieved string `yaml:"retrieved"`
}

// LoadDefault builds the catalog from the seed data compiled into the binary.
func LoadDefault() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// LoadFile builds the catalog from a YAML file in the seed format.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes seed YAML and validates the resulting catalog.
func Parse(data []byte) (*Catalog, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	records := make([]Record, 0, len(f.Vaccines))
	for _, s := range f.Vaccines {
		r, err := s.toRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: vaccine %q: %w", ErrInvalidCatalog, s.ID, err)
		}
		records = append(records, r)
	}
	return NewCatalog(records)
}

func (s seedRecord) toRecord() (Record, error) {
	if s.VerificationStatus != "" {
		return Record{}, fmt.Errorf("verification_status must not be set in seed data")
	}
	r := Record{
		ID:                s.ID,
		Name:              s.Name,
		Synonyms:          s.Synonyms,
		VaccineType:       VaccineType(s.Type),
		TargetAgeGroups:   s.AgeGroups,
		DiseasesPrevented: s.Diseases,
		Indications:       s.Indications,
		Benefits:          s.Benefits,
		CommonSideEffects: s.SideEffects,
		Contraindications: s.Contraindications,
		MandatoryStatus:   MandatoryStatus(s.Mandatory),
		CostEstimate:      CostEstimate{Public: s.Cost.Public, Private: s.Cost.Private},
		EvidenceLevel:     EvidenceLevel(s.Evidence),
		Confidence:        s.Confidence,
	}
	for _, d := range s.Schedule {
		due, err := d.Due.toTiming()
		if err != nil {
			return Record{}, fmt.Errorf("dose %d: %w", d.Dose, err)
		}
		r.Schedule = append(r.Schedule, Dose{
			DoseNumber:           d.Dose,
			Timing:               d.Timing,
			Due:                  due,
			IntervalFromPrevious: d.Interval,
			Notes:                d.Notes,
		})
	}
	for _, src := range s.Sources {
		var retrieved time.Time
		if src.Retrieved != "" {
			t, err := time.Parse(time.DateOnly, src.Retrieved)
			if err != nil {
				return Record{}, fmt.Errorf("source %q: invalid retrieved date: %w", src.Title, err)
			}
			retrieved = t
		}
		r.Sources = append(r.Sources, Source{Title: src.Title, URL: src.URL, RetrievedDate: retrieved})
	}
	return r, nil
}

func (d seedDue) toTiming() (DoseTiming, error) {
	set := 0
	for _, v := range []string{d.FromBirth, d.FromPrevious, d.AgeWindow} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return DoseTiming{}, fmt.Errorf("due must set at most one of from_birth, from_previous, age_window")
	}
	switch {
	case d.FromBirth != "":
		off, err := ParseOffset(d.FromBirth)
		if err != nil {
			return DoseTiming{}, err
		}
		return DoseTiming{Kind: TimingFromBirth, Offset: off}, nil
	case d.FromPrevious != "":
		off, err := ParseOffset(d.FromPrevious)
		if err != nil {
			return DoseTiming{}, err
		}
		return DoseTiming{Kind: TimingFromPrevious, Offset: off}, nil
	case d.AgeWindow != "":
		return DoseTiming{Kind: TimingAgeWindow, AgeGroup: d.AgeWindow}, nil
	default:
		return DoseTiming{Kind: TimingUnspecified}, nil
	}
}
