package gs1

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const tradeItemPath = "/tradeitem/tradeitem.api/TradeItemInformation"

// QAStatus is the quality check state reported by GS1.
type QAStatus struct {
	DigitalQAStatus     string `json:"digitalQAStatus"`
	MeasurementQAStatus string `json:"measurementQAStatus"`
	BarcodeQAStatus     string `json:"barcodeQAStatus"`
}

// TradeItem is the subset of the trade item record the planner uses.
type TradeItem struct {
	GTIN                     string    `json:"gtin"`
	FunctionalName           string    `json:"functionalName"`
	DescriptionShort         string    `json:"descriptionShort"`
	BrandName                string    `json:"brandName"`
	GPCCode                  string    `json:"gpcCode"`
	TargetMarketCountryCode  string    `json:"targetMarketCountryCode"`
	DescriptiveSizeDimension string    `json:"descriptiveSizeDimension"`
	BrandOwnerGLN            string    `json:"brandOwnerGln"`
	InformationProviderGLN   string    `json:"informationProviderGln"`
	QAStatus                 *QAStatus `json:"qaStatus,omitempty"`
}

// LookupOptions controls GetTradeItem.
type LookupOptions struct {
	DataType     string // Product or GDSN
	AllowInvalid bool
}

// GetTradeItem fetches the records registered for a GTIN.
func (c *Client) GetTradeItem(ctx context.Context, gtin string, opts LookupOptions) ([]TradeItem, error) {
	if opts.DataType == "" {
		opts.DataType = "Product"
	}
	q := url.Values{}
	q.Set("gtin", gtin)
	q.Set("dataType", opts.DataType)
	q.Set("allowInvalid", strconv.FormatBool(opts.AllowInvalid))

	var items []TradeItem
	if err := c.doRequest(ctx, http.MethodGet, tradeItemPath+"/getItemByIdentification?"+q.Encode(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Search runs a free-form trade item search. The request and response shapes
// are passed through untouched.
func (c *Client) Search(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	var result interface{}
	if err := c.doRequest(ctx, http.MethodPost, tradeItemPath+"/search", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Report is the result of checking a trade item for launch readiness.
type Report struct {
	Valid             bool       `json:"valid"`
	Errors            []string   `json:"errors"`
	Warnings          []string   `json:"warnings"`
	MissingAttributes []string   `json:"missing_attributes"`
	TradeItem         *TradeItem `json:"trade_item,omitempty"`
}

type attribute struct {
	name  string
	value string
}

// Check inspects a trade item for the attributes retailers require.
// A nil item yields an invalid report.
func Check(item *TradeItem) Report {
	r := Report{Errors: []string{}, Warnings: []string{}, MissingAttributes: []string{}}
	if item == nil {
		r.Errors = append(r.Errors, "trade item not found in GS1")
		return r
	}
	r.TradeItem = item

	required := []attribute{
		{"GTIN", item.GTIN},
		{"Functional name", item.FunctionalName},
		{"Short description", item.DescriptionShort},
		{"Brand name", item.BrandName},
		{"GPC code", item.GPCCode},
		{"Target market", item.TargetMarketCountryCode},
	}
	for _, a := range required {
		if strings.TrimSpace(a.value) == "" {
			r.MissingAttributes = append(r.MissingAttributes, a.name)
			r.Errors = append(r.Errors, a.name+" is missing")
		}
	}

	recommended := []attribute{
		{"Size", item.DescriptiveSizeDimension},
		{"Brand owner GLN", item.BrandOwnerGLN},
		{"Information provider GLN", item.InformationProviderGLN},
	}
	for _, a := range recommended {
		if strings.TrimSpace(a.value) == "" {
			r.Warnings = append(r.Warnings, a.name+" is missing (recommended)")
		}
	}

	if qa := item.QAStatus; qa != nil {
		if qa.DigitalQAStatus == "ActionRequired" {
			r.Warnings = append(r.Warnings, "digital QA requires action")
		}
		if qa.MeasurementQAStatus == "ActionRequired" {
			r.Warnings = append(r.Warnings, "measurement QA requires action")
		}
		if qa.BarcodeQAStatus == "ActionRequired" {
			r.Warnings = append(r.Warnings, "barcode QA requires action")
		}
		if qa.DigitalQAStatus == "Booked" {
			r.Warnings = append(r.Warnings, "digital QA is booked")
		}
	}

	r.Valid = len(r.Errors) == 0
	return r
}
