package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

func reminderText(r vaccine.Record, u Urgency, days int, due time.Time) string {
	var lead string
	switch {
	case u == UrgencyNeedsReview:
		lead = fmt.Sprintf("Ask your healthcare provider when to schedule %s.", r.Name)
	case days < 0:
		lead = fmt.Sprintf("%s is overdue by %s. Please talk to your healthcare provider about catching up.", r.Name, plural(-days, "day"))
	case days == 0:
		lead = fmt.Sprintf("%s is due today.", r.Name)
	default:
		lead = fmt.Sprintf("%s is due in %s, on %s.", r.Name, plural(days, "day"), due.Format("Jan 2, 2006"))
	}
	if len(r.DiseasesPrevented) == 0 {
		return lead
	}
	return lead + " It protects against " + joinList(r.DiseasesPrevented) + "."
}

func reason(r vaccine.Record, d vaccine.Dose) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dose %d of %d", d.DoseNumber, len(r.Schedule))
	if d.Timing != "" {
		fmt.Fprintf(&b, " (%s)", d.Timing)
	}
	b.WriteString(". ")
	switch r.MandatoryStatus {
	case vaccine.StatusMandatory:
		b.WriteString("Part of the national schedule for your age group.")
	case vaccine.StatusSpecialProgram:
		b.WriteString("Offered through a special programme in some areas.")
	case vaccine.StatusOptional:
		b.WriteString("Optional for your age group.")
	default:
		b.WriteString("Recommended for your age group.")
	}
	if d.Notes != "" {
		b.WriteString(" " + d.Notes)
	}
	return b.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
