// Package schedule derives launch dates, activity checklists and product
// status for the launch planner. Everything here is pure: callers pass a
// consistent snapshot in and persist what comes back.
package schedule

import "time"

// ProductType selects the template and the launch-week derivation path.
type ProductType string

const (
	ProductTypeLaunch    ProductType = "launch"
	ProductTypeDelisting ProductType = "delisting"
)

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	return t == ProductTypeLaunch || t == ProductTypeDelisting
}

// ProductStatus is the aggregate status of a product.
type ProductStatus string

const (
	ProductDraft     ProductStatus = "draft"
	ProductActive    ProductStatus = "active"
	ProductCompleted ProductStatus = "completed"
	ProductCancelled ProductStatus = "cancelled"
)

// Valid reports whether s is one of the four product states.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductDraft, ProductActive, ProductCompleted, ProductCancelled:
		return true
	}
	return false
}

// ActivityStatus is the state of a single checklist item.
type ActivityStatus string

const (
	ActivityNotStarted ActivityStatus = "not_started"
	ActivityInProgress ActivityStatus = "in_progress"
	ActivityCompleted  ActivityStatus = "completed"
)

// Valid reports whether s is one of the three activity states.
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityNotStarted, ActivityInProgress, ActivityCompleted:
		return true
	}
	return false
}

// RetailerLaunch is one sales channel and the weeks it starts selling.
type RetailerLaunch struct {
	Retailer    string `json:"retailer" yaml:"retailer"`
	LaunchWeeks []int  `json:"launch_weeks" yaml:"launch_weeks"`
	LaunchYear  int    `json:"launch_year" yaml:"launch_year"`
}

// Member is a user as seen by role auto-assignment.
type Member struct {
	ID    string
	Name  string
	Roles []string
}

// HasRole reports whether the member holds role.
func (m Member) HasRole(role string) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Activity is a generated checklist item. It carries a copy of the template
// entry it came from, never a reference to it.
type Activity struct {
	ID                string
	TemplateID        string
	Name              string
	Description       string
	Category          string
	Order             int
	Required          bool
	WeeksBeforeLaunch int
	Deadline          time.Time
	DeadlineWeek      int
	Status            ActivityStatus
	AssigneeID        string
	AssigneeName      string
}
