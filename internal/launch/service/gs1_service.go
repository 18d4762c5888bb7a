package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/shared/gs1"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/shared/gtin"
	"go.uber.org/zap"
)

// TradeItemSource looks trade items up by GTIN or free-form query
type TradeItemSource interface {
	GetTradeItem(ctx context.Context, gtin string, opts gs1.LookupOptions) ([]gs1.TradeItem, error)
	Search(ctx context.Context, params map[string]interface{}) (interface{}, error)
}

// SubscriptionSource manages GS1 change subscriptions
type SubscriptionSource interface {
	CreateSubscription(ctx context.Context, sub gs1.Subscription) (*gs1.Subscription, error)
	Subscriptions(ctx context.Context) ([]gs1.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error
}

// GS1Service wraps the GS1 trade item API
type GS1Service struct {
	source TradeItemSource
	subs   SubscriptionSource
	logger *zap.Logger
}

// NewGS1Service creates a GS1Service. A nil source disables the integration.
// Subscriptions are available when the source also implements SubscriptionSource.
func NewGS1Service(source TradeItemSource, logger *zap.Logger) *GS1Service {
	s := &GS1Service{source: source, logger: logger}
	if subs, ok := source.(SubscriptionSource); ok {
		s.subs = subs
	}
	return s
}

// Enabled reports whether a GS1 client is configured
func (s *GS1Service) Enabled() bool {
	return s.source != nil
}

// Ping checks the GS1 credentials when the source supports it
func (s *GS1Service) Ping(ctx context.Context) error {
	if s.source == nil {
		return ErrGS1Disabled
	}
	if p, ok := s.source.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *GS1Service) prepare(code string) (string, error) {
	cleaned, err := gtin.Validate(code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidGTIN, err)
	}
	if s.source == nil {
		return "", ErrGS1Disabled
	}
	return cleaned, nil
}

// Lookup returns the first trade item registered for a GTIN
func (s *GS1Service) Lookup(ctx context.Context, code string) (*gs1.TradeItem, error) {
	cleaned, err := s.prepare(code)
	if err != nil {
		return nil, err
	}
	items, err := s.source.GetTradeItem(ctx, cleaned, gs1.LookupOptions{DataType: "Product"})
	if errors.Is(err, gs1.ErrNotFound) || (err == nil && len(items) == 0) {
		return nil, ErrTradeItemNotFound
	}
	if err != nil {
		s.logger.Error("gs1 lookup failed", zap.String("gtin", cleaned), zap.Error(err))
		return nil, fmt.Errorf("gs1 lookup: %w", err)
	}
	return &items[0], nil
}

// Validate checks a GTIN's GDSN record for the attributes retailers require
func (s *GS1Service) Validate(ctx context.Context, code string) (*gs1.Report, error) {
	cleaned, err := s.prepare(code)
	if err != nil {
		return nil, err
	}
	items, err := s.source.GetTradeItem(ctx, cleaned, gs1.LookupOptions{DataType: "GDSN", AllowInvalid: true})
	if err != nil && !errors.Is(err, gs1.ErrNotFound) {
		s.logger.Error("gs1 validation failed", zap.String("gtin", cleaned), zap.Error(err))
		return nil, fmt.Errorf("gs1 validate: %w", err)
	}
	var item *gs1.TradeItem
	if len(items) > 0 {
		item = &items[0]
	}
	report := gs1.Check(item)
	return &report, nil
}

// Search passes a free-form query through to GS1
func (s *GS1Service) Search(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if s.source == nil {
		return nil, ErrGS1Disabled
	}
	result, err := s.source.Search(ctx, params)
	if err != nil {
		s.logger.Error("gs1 search failed", zap.Error(err))
		return nil, fmt.Errorf("gs1 search: %w", err)
	}
	return result, nil
}

// Subscribe registers a change subscription for a GTIN
func (s *GS1Service) Subscribe(ctx context.Context, sub gs1.Subscription) (*gs1.Subscription, error) {
	if sub.GTIN != "" {
		cleaned, err := gtin.Validate(sub.GTIN)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGTIN, err)
		}
		sub.GTIN = cleaned
	}
	if s.subs == nil {
		return nil, ErrGS1Disabled
	}
	created, err := s.subs.CreateSubscription(ctx, sub)
	if err != nil {
		s.logger.Error("gs1 subscribe failed", zap.String("gtin", sub.GTIN), zap.Error(err))
		return nil, fmt.Errorf("gs1 subscribe: %w", err)
	}
	s.logger.Info("gs1 subscription created", zap.String("id", created.ID), zap.String("gtin", sub.GTIN))
	return created, nil
}

// Subscriptions lists the subscriptions held by the configured GLN
func (s *GS1Service) Subscriptions(ctx context.Context) ([]gs1.Subscription, error) {
	if s.subs == nil {
		return nil, ErrGS1Disabled
	}
	subs, err := s.subs.Subscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("gs1 subscriptions: %w", err)
	}
	if subs == nil {
		subs = []gs1.Subscription{}
	}
	return subs, nil
}

// Unsubscribe removes a subscription
func (s *GS1Service) Unsubscribe(ctx context.Context, id string) error {
	if s.subs == nil {
		return ErrGS1Disabled
	}
	err := s.subs.DeleteSubscription(ctx, id)
	if errors.Is(err, gs1.ErrNotFound) {
		return ErrSubscriptionGone
	}
	if err != nil {
		return fmt.Errorf("gs1 unsubscribe: %w", err)
	}
	return nil
}
