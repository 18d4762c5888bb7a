package schedule

// TemplateEntry is one blueprint of an activity template.
type TemplateEntry struct {
	ID                  string `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	Description         string `json:"description" yaml:"description"`
	WeeksBeforeLaunch   int    `json:"weeks_before_launch" yaml:"weeks_before_launch"`
	Category            string `json:"category" yaml:"category"`
	Required            bool   `json:"required" yaml:"required"`
	DefaultAssigneeRole string `json:"default_assignee_role,omitempty" yaml:"default_assignee_role,omitempty"`
	Order               int    `json:"order" yaml:"order"`
}

// Built-in role codes referenced by the default templates.
const (
	RoleMasterData = "masterdata"
	RoleKAM        = "kam"
	RoleLogistics  = "logistics"
)

var defaultLaunchTemplate = []TemplateEntry{
	{ID: "notification", Name: "Product notification, start article data", Description: "Announce the new product and start collecting article data", WeeksBeforeLaunch: -15, Category: "Article data", Required: true, Order: 1},
	{ID: "first-approval", Name: "First internal approval, preliminary product info", Description: "Internal review and approval of product information", WeeksBeforeLaunch: -13, Category: "Approval", Required: true, Order: 2},
	{ID: "images-gs1", Name: "Images, GS1 validation, complete article data", Description: "Product images, GS1 quality check and complete article data", WeeksBeforeLaunch: -12, Category: "Article data", Required: true, DefaultAssigneeRole: RoleMasterData, Order: 3},
	{ID: "packaging-approval", Name: "Packaging approval", Description: "Approve packaging design and material", WeeksBeforeLaunch: -11, Category: "Approval", Required: true, Order: 4},
	{ID: "pricing", Name: "Price and terms", Description: "Set price and trade terms", WeeksBeforeLaunch: -10, Category: "Commercial", Required: true, Order: 5},
	{ID: "customer-presentation", Name: "Customer presentation / offer", Description: "Present the product to the customer with an offer", WeeksBeforeLaunch: -10, Category: "Customer", Required: true, DefaultAssigneeRole: RoleKAM, Order: 6},
	{ID: "customer-decision", Name: "Customer decision, listing", Description: "Customer decision and listing agreement", WeeksBeforeLaunch: -8, Category: "Customer", Required: true, Order: 7},
	{ID: "forecast-logistics", Name: "Forecast, logistics plan", Description: "Sales forecast and logistics planning", WeeksBeforeLaunch: -6, Category: "Logistics", Required: true, Order: 8},
	{ID: "production-start", Name: "Production start, stock level", Description: "Start production and secure stock", WeeksBeforeLaunch: -4, Category: "Production", Required: true, Order: 9},
	{ID: "delivery-warehouse", Name: "Delivery to central warehouse", Description: "Deliver products to the central warehouse", WeeksBeforeLaunch: -2, Category: "Logistics", Required: true, Order: 10},
	{ID: "shelf-start", Name: "Shelf start", Description: "Product is on shelf and available to consumers", WeeksBeforeLaunch: 0, Category: "Launch", Required: true, Order: 11},
}

var delistingTemplate = []TemplateEntry{
	{ID: "delisting-notification", Name: "Delisting decision and notice", Description: "Product owner announces the delisting decision", WeeksBeforeLaunch: -10, Category: "Delisting", Required: true, DefaultAssigneeRole: RoleKAM, Order: 1},
	{ID: "validoo-notification", Name: "Notify Validoo", Description: "Notify Validoo about the delisting and start the process", WeeksBeforeLaunch: -10, Category: "Delisting", Required: true, DefaultAssigneeRole: RoleMasterData, Order: 2},
	{ID: "validoo-data-update", Name: "Update data in Validoo", Description: "Update product data in Validoo for delisting", WeeksBeforeLaunch: -8, Category: "Delisting", Required: true, DefaultAssigneeRole: RoleMasterData, Order: 3},
	{ID: "retailer-notification", Name: "Notify retail chains", Description: "Inform affected chains about the delisting", WeeksBeforeLaunch: -6, Category: "Delisting", Required: true, DefaultAssigneeRole: RoleKAM, Order: 4},
	{ID: "final-stock-check", Name: "Final stock check", Description: "Make sure remaining stock is sold or returned", WeeksBeforeLaunch: -4, Category: "Delisting", Required: true, DefaultAssigneeRole: RoleLogistics, Order: 5},
	{ID: "validoo-finalization", Name: "Finalise in Validoo", Description: "Complete the delisting process in Validoo", WeeksBeforeLaunch: -2, Category: "Delisting", Required: true, DefaultAssigneeRole: RoleMasterData, Order: 6},
	{ID: "delisting-complete", Name: "Delisting done", Description: "Product is delisted and no longer available", WeeksBeforeLaunch: 0, Category: "Delisting", Required: true, DefaultAssigneeRole: RoleKAM, Order: 7},
}

// DefaultLaunchTemplate returns a copy of the 16-week ECR launch template.
func DefaultLaunchTemplate() []TemplateEntry {
	return cloneEntries(defaultLaunchTemplate)
}

// DelistingTemplate returns a copy of the delisting template.
func DelistingTemplate() []TemplateEntry {
	return cloneEntries(delistingTemplate)
}

// BuiltinTemplate returns the built-in template for a product type.
func BuiltinTemplate(t ProductType) []TemplateEntry {
	if t == ProductTypeDelisting {
		return DelistingTemplate()
	}
	return DefaultLaunchTemplate()
}

func cloneEntries(in []TemplateEntry) []TemplateEntry {
	out := make([]TemplateEntry, len(in))
	copy(out, in)
	return out
}
