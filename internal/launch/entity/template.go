package entity

import (
	"time"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
)

// ActivityTemplate is an editable activity blueprint set
type ActivityTemplate struct {
	ID          string               `json:"id" gorm:"primaryKey;size:36"`
	Code        string               `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name        string               `json:"name" gorm:"size:200;not null"`
	Description string               `json:"description" gorm:"type:text"`
	ProductType schedule.ProductType `json:"product_type" gorm:"size:16;not null;default:launch"`
	IsDefault   bool                 `json:"is_default" gorm:"not null;default:false"`
	CreatedBy   string               `json:"created_by" gorm:"size:36"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	// associations
	Entries []TemplateEntry `json:"entries,omitempty" gorm:"foreignKey:TemplateID"`
}

func (ActivityTemplate) TableName() string {
	return "activity_templates"
}

// TemplateEntry is one activity blueprint of a template
type TemplateEntry struct {
	ID                  string    `json:"id" gorm:"primaryKey;size:36"`
	TemplateID          string    `json:"template_id" gorm:"size:36;not null;index"`
	Code                string    `json:"code" gorm:"size:64;not null"`
	Name                string    `json:"name" gorm:"size:200;not null"`
	Description         string    `json:"description" gorm:"type:text"`
	WeeksBeforeLaunch   int       `json:"weeks_before_launch" gorm:"not null"`
	Category            string    `json:"category" gorm:"size:100"`
	Required            bool      `json:"required" gorm:"not null;default:false"`
	DefaultAssigneeRole string    `json:"default_assignee_role" gorm:"size:64"`
	SortOrder           int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (TemplateEntry) TableName() string {
	return "template_entries"
}

// ScheduleEntries converts the loaded entries for the generator.
func (t *ActivityTemplate) ScheduleEntries() []schedule.TemplateEntry {
	out := make([]schedule.TemplateEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		out = append(out, schedule.TemplateEntry{
			ID:                  e.Code,
			Name:                e.Name,
			Description:         e.Description,
			WeeksBeforeLaunch:   e.WeeksBeforeLaunch,
			Category:            e.Category,
			Required:            e.Required,
			DefaultAssigneeRole: e.DefaultAssigneeRole,
			Order:               e.SortOrder,
		})
	}
	return out
}

// NewTemplateEntries maps core entries onto rows of templateID. newID supplies row ids.
func NewTemplateEntries(templateID string, entries []schedule.TemplateEntry, newID func() string) []TemplateEntry {
	out := make([]TemplateEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, TemplateEntry{
			ID:                  newID(),
			TemplateID:          templateID,
			Code:                e.ID,
			Name:                e.Name,
			Description:         e.Description,
			WeeksBeforeLaunch:   e.WeeksBeforeLaunch,
			Category:            e.Category,
			Required:            e.Required,
			DefaultAssigneeRole: e.DefaultAssigneeRole,
			SortOrder:           e.Order,
		})
	}
	return out
}

// Models lists every persisted entity for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Role{},
		&Group{},
		&Product{},
		&ProductRetailer{},
		&Activity{},
		&ActivityComment{},
		&ActivityTemplate{},
		&TemplateEntry{},
	}
}
