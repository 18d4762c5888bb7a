package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type generateOptions struct {
	newID func(entry TemplateEntry, index int) string
}

// GenerateOption customises Generate.
type GenerateOption func(*generateOptions)

// WithIDFunc replaces the uuid-based activity id source.
func WithIDFunc(fn func(entry TemplateEntry, index int) string) GenerateOption {
	return func(o *generateOptions) {
		o.newID = fn
	}
}

// Generate builds the dated activity list for one product.
//
// Entries are ordered by WeeksBeforeLaunch (earliest first) and then by Order;
// the caller's slice is left untouched. An entry with a DefaultAssigneeRole is
// assigned to the first roster member holding that role, or left unassigned
// when nobody does.
func Generate(template []TemplateEntry, launchDate time.Time, roster []Member, opts ...GenerateOption) []Activity {
	o := generateOptions{
		newID: func(TemplateEntry, int) string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(&o)
	}

	entries := make([]TemplateEntry, len(template))
	copy(entries, template)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].WeeksBeforeLaunch != entries[j].WeeksBeforeLaunch {
			return entries[i].WeeksBeforeLaunch < entries[j].WeeksBeforeLaunch
		}
		return entries[i].Order < entries[j].Order
	})

	activities := make([]Activity, 0, len(entries))
	for i, e := range entries {
		deadline := DeadlineFromOffset(launchDate, e.WeeksBeforeLaunch)
		a := Activity{
			ID:                o.newID(e, i),
			TemplateID:        e.ID,
			Name:              e.Name,
			Description:       e.Description,
			Category:          e.Category,
			Order:             e.Order,
			Required:          e.Required,
			WeeksBeforeLaunch: e.WeeksBeforeLaunch,
			Deadline:          deadline,
			DeadlineWeek:      ISOWeekOf(deadline).Week,
			Status:            ActivityNotStarted,
		}
		if m, ok := assigneeFor(e.DefaultAssigneeRole, roster); ok {
			a.AssigneeID = m.ID
			a.AssigneeName = m.Name
		}
		activities = append(activities, a)
	}
	return activities
}

// Reschedule recomputes deadlines of already generated activities against a
// new launch date. Status and assignment are kept.
func Reschedule(activities []Activity, launchDate time.Time) []Activity {
	out := make([]Activity, len(activities))
	for i, a := range activities {
		a.Deadline = DeadlineFromOffset(launchDate, a.WeeksBeforeLaunch)
		a.DeadlineWeek = ISOWeekOf(a.Deadline).Week
		out[i] = a
	}
	return out
}

func assigneeFor(role string, roster []Member) (Member, bool) {
	if role == "" {
		return Member{}, false
	}
	for _, m := range roster {
		if m.HasRole(role) {
			return m, true
		}
	}
	return Member{}, false
}
