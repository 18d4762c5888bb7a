package entity

import (
	"time"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
)

// Activity is a dated checklist item of a product. Name, category and offset
// are copied from the template at generation time.
type Activity struct {
	ID                string                  `json:"id" gorm:"primaryKey;size:36"`
	ProductID         string                  `json:"product_id" gorm:"size:36;not null;index"`
	TemplateEntryID   string                  `json:"template_entry_id" gorm:"size:64"`
	Name              string                  `json:"name" gorm:"size:200;not null"`
	Description       string                  `json:"description" gorm:"type:text"`
	Category          string                  `json:"category" gorm:"size:100"`
	SortOrder         int                     `json:"sort_order" gorm:"not null;default:0"`
	Position          int                     `json:"position" gorm:"not null;default:0"` // index in the generated schedule
	Required          bool                    `json:"required" gorm:"not null;default:false"`
	WeeksBeforeLaunch int                     `json:"weeks_before_launch" gorm:"not null"`
	Deadline          time.Time               `json:"deadline" gorm:"index"`
	DeadlineWeek      int                     `json:"deadline_week"`
	Status            schedule.ActivityStatus `json:"status" gorm:"size:16;not null;default:not_started"`
	AssigneeID        *string                 `json:"assignee_id" gorm:"size:36;index"`
	AssigneeName      string                  `json:"assignee_name" gorm:"size:100"`
	CompletedAt       *time.Time              `json:"completed_at"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`

	// associations
	Product  *Product          `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Comments []ActivityComment `json:"comments,omitempty" gorm:"foreignKey:ActivityID"`
}

func (Activity) TableName() string {
	return "activities"
}

// ActivityComment is an append-only note on an activity
type ActivityComment struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	ActivityID string    `json:"activity_id" gorm:"size:36;not null;index"`
	UserID     string    `json:"user_id" gorm:"size:36;not null"`
	UserName   string    `json:"user_name" gorm:"size:100"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityComment) TableName() string {
	return "activity_comments"
}

// NewActivity maps the generated activity at position onto a row of productID.
func NewActivity(productID string, position int, a schedule.Activity) Activity {
	row := Activity{
		ID:                a.ID,
		ProductID:         productID,
		Position:          position,
		TemplateEntryID:   a.TemplateID,
		Name:              a.Name,
		Description:       a.Description,
		Category:          a.Category,
		SortOrder:         a.Order,
		Required:          a.Required,
		WeeksBeforeLaunch: a.WeeksBeforeLaunch,
		Deadline:          a.Deadline,
		DeadlineWeek:      a.DeadlineWeek,
		Status:            a.Status,
		AssigneeName:      a.AssigneeName,
	}
	if a.AssigneeID != "" {
		id := a.AssigneeID
		row.AssigneeID = &id
	}
	return row
}

// Schedule returns the core view of the row.
func (a *Activity) Schedule() schedule.Activity {
	out := schedule.Activity{
		ID:                a.ID,
		TemplateID:        a.TemplateEntryID,
		Name:              a.Name,
		Description:       a.Description,
		Category:          a.Category,
		Order:             a.SortOrder,
		Required:          a.Required,
		WeeksBeforeLaunch: a.WeeksBeforeLaunch,
		Deadline:          a.Deadline,
		DeadlineWeek:      a.DeadlineWeek,
		Status:            a.Status,
		AssigneeName:      a.AssigneeName,
	}
	if a.AssigneeID != nil {
		out.AssigneeID = *a.AssigneeID
	}
	return out
}
