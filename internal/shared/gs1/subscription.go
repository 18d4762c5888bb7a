package gs1

import (
	"context"
	"net/http"
	"net/url"
)

const subscriptionPath = "/subscriptions/subscriptions.api/Subscription"

// Subscription asks GS1 to push trade item changes for a GTIN or a
// brand owner to the subscriber GLN.
type Subscription struct {
	ID              string `json:"id,omitempty"`
	SubscriberGLN   string `json:"subscriberGln"`
	GTIN            string `json:"gtin,omitempty"`
	BrandOwnerGLN   string `json:"brandOwnerGln,omitempty"`
	TargetMarket    string `json:"targetMarketCountryCode,omitempty"`
	GPCCategoryCode string `json:"gpcCategoryCode,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// CreateSubscription registers a subscription. SubscriberGLN defaults to the
// configured GLN.
func (c *Client) CreateSubscription(ctx context.Context, sub Subscription) (*Subscription, error) {
	if sub.SubscriberGLN == "" {
		sub.SubscriberGLN = c.cfg.GLN
	}
	var created Subscription
	if err := c.doRequest(ctx, http.MethodPost, subscriptionPath+"/create", sub, &created); err != nil {
		return nil, err
	}
	if created.SubscriberGLN == "" {
		created.SubscriberGLN = sub.SubscriberGLN
	}
	return &created, nil
}

// Subscriptions lists the subscriptions held by the configured GLN.
func (c *Client) Subscriptions(ctx context.Context) ([]Subscription, error) {
	body := map[string]string{"subscriberGln": c.cfg.GLN}
	var subs []Subscription
	if err := c.doRequest(ctx, http.MethodPost, subscriptionPath+"/search", body, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// DeleteSubscription removes a subscription by id.
func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	return c.doRequest(ctx, http.MethodDelete, subscriptionPath+"/"+url.PathEscape(id), nil, nil)
}
