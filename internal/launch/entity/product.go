package entity

import (
	"time"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
)

// Product is a launch or delisting case
type Product struct {
	ID          string                 `json:"id" gorm:"primaryKey;size:36"`
	GTIN        string                 `json:"gtin" gorm:"size:14;not null;index"`
	Name        string                 `json:"name" gorm:"size:200;not null"`
	Category    string                 `json:"category" gorm:"size:100"`
	ProductType schedule.ProductType   `json:"product_type" gorm:"size:16;not null;default:launch"`
	Status      schedule.ProductStatus `json:"status" gorm:"size:16;not null;default:draft;index"`
	LaunchWeek  int                    `json:"launch_week" gorm:"not null"`
	LaunchYear  int                    `json:"launch_year" gorm:"not null"`
	LaunchDate  time.Time              `json:"launch_date"`
	TemplateID  *string                `json:"template_id" gorm:"size:36"`
	CreatedBy   string                 `json:"created_by" gorm:"size:36"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`

	// associations
	Retailers  []ProductRetailer `json:"retailers,omitempty" gorm:"foreignKey:ProductID"`
	Activities []Activity        `json:"activities,omitempty" gorm:"foreignKey:ProductID"`

	// computed
	Progress int `json:"progress" gorm:"-"`
}

func (Product) TableName() string {
	return "products"
}

// ProductRetailer is one retail chain's launch plan for a product
type ProductRetailer struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	ProductID   string `json:"product_id" gorm:"size:36;not null;index"`
	Retailer    string `json:"retailer" gorm:"size:100;not null"`
	LaunchWeeks []int  `json:"launch_weeks" gorm:"serializer:json"`
	LaunchYear  int    `json:"launch_year"`
	Position    int    `json:"-" gorm:"not null;default:0"`
}

func (ProductRetailer) TableName() string {
	return "product_retailers"
}

// Week returns the product's nominal launch week.
func (p *Product) Week() schedule.Week {
	return schedule.Week{Year: p.LaunchYear, Week: p.LaunchWeek}
}

// RetailerLaunches converts the retailer rows in their stored order.
func (p *Product) RetailerLaunches() []schedule.RetailerLaunch {
	out := make([]schedule.RetailerLaunch, 0, len(p.Retailers))
	for _, r := range p.Retailers {
		out = append(out, schedule.RetailerLaunch{
			Retailer:    r.Retailer,
			LaunchWeeks: r.LaunchWeeks,
			LaunchYear:  r.LaunchYear,
		})
	}
	return out
}

// ActivityStatuses collects the status of every loaded activity.
func (p *Product) ActivityStatuses() []schedule.ActivityStatus {
	out := make([]schedule.ActivityStatus, 0, len(p.Activities))
	for _, a := range p.Activities {
		out = append(out, a.Status)
	}
	return out
}
