package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"go.uber.org/zap"
)

// ActivityService updates checklist items and keeps the product status derived
type ActivityService struct {
	repos     *repository.Repositories
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewActivityService creates an ActivityService
func NewActivityService(repos *repository.Repositories, publisher Publisher, logger *zap.Logger) *ActivityService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ActivityService{repos: repos, publisher: publisher, logger: logger, now: time.Now}
}

// UpdateActivityRequest changes status and/or assignee. An empty AssigneeID unassigns.
type UpdateActivityRequest struct {
	Status     *schedule.ActivityStatus `json:"status"`
	AssigneeID *string                  `json:"assignee_id"`
}

// Update applies the request and re-derives the owning product's status
// whenever the activity status changes.
func (s *ActivityService) Update(ctx context.Context, id string, req *UpdateActivityRequest) (*entity.Activity, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
	}

	activity, err := s.repos.Activity.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousAssignee := ""
	if activity.AssigneeID != nil {
		previousAssignee = *activity.AssigneeID
	}

	now := s.now()
	statusChanged := false
	if req.Status != nil && *req.Status != activity.Status {
		statusChanged = true
		activity.Status = *req.Status
		if activity.Status == schedule.ActivityCompleted {
			activity.CompletedAt = &now
		} else {
			activity.CompletedAt = nil
		}
	}

	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			activity.AssigneeID = nil
			activity.AssigneeName = ""
		} else {
			user, err := s.repos.User.FindByID(ctx, *req.AssigneeID)
			if err != nil {
				return nil, fmt.Errorf("assignee: %w", err)
			}
			activity.AssigneeID = &user.ID
			activity.AssigneeName = user.Name
		}
	}
	activity.UpdatedAt = now

	var productStatus schedule.ProductStatus
	productChanged := false
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Activity.Update(ctx, activity); err != nil {
			return err
		}
		if !statusChanged {
			return nil
		}
		product, err := tx.Product.FindByID(ctx, activity.ProductID)
		if err != nil {
			return err
		}
		statuses, err := tx.Activity.StatusesByProduct(ctx, activity.ProductID)
		if err != nil {
			return err
		}
		productStatus = schedule.DeriveStatus(statuses, product.Status)
		if productStatus == product.Status {
			return nil
		}
		productChanged = true
		return tx.Product.UpdateStatus(ctx, product.ID, productStatus)
	})
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}

	s.publisher.PublishActivityUpdate(activity.ProductID, activity.ID, "updated")
	if productChanged {
		s.logger.Info("product status derived",
			zap.String("product_id", activity.ProductID), zap.String("status", string(productStatus)))
		s.publisher.PublishProductUpdate(activity.ProductID, "status_change")
	}
	currentAssignee := ""
	if activity.AssigneeID != nil {
		currentAssignee = *activity.AssigneeID
	}
	if previousAssignee != "" {
		s.publisher.PublishUserActivityUpdate(previousAssignee, activity.ProductID, activity.ID, "updated")
	}
	if currentAssignee != "" && currentAssignee != previousAssignee {
		s.publisher.PublishUserActivityUpdate(currentAssignee, activity.ProductID, activity.ID, "assigned")
	}
	return activity, nil
}

// AddComment appends a comment. Comments are never edited or removed.
func (s *ActivityService) AddComment(ctx context.Context, activityID, userID, userName, text string) (*entity.ActivityComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	activity, err := s.repos.Activity.FindByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	comment := &entity.ActivityComment{
		ID:         newID(),
		ActivityID: activity.ID,
		UserID:     userID,
		UserName:   userName,
		Text:       text,
		CreatedAt:  s.now(),
	}
	if err := s.repos.Activity.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	s.publisher.PublishActivityUpdate(activity.ProductID, activity.ID, "commented")
	return comment, nil
}

// ListByProduct returns a product's activities in schedule order
func (s *ActivityService) ListByProduct(ctx context.Context, productID string) ([]entity.Activity, error) {
	if _, err := s.repos.Product.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repos.Activity.ListByProduct(ctx, productID)
}

// ListMine returns the activities assigned to a user, earliest deadline first
func (s *ActivityService) ListMine(ctx context.Context, userID string) ([]entity.Activity, error) {
	return s.repos.Activity.ListByAssignee(ctx, userID)
}

// ICS renders a calendar invitation for one activity deadline
func (s *ActivityService) ICS(ctx context.Context, activityID string) ([]byte, string, error) {
	activity, err := s.repos.Activity.FindByID(ctx, activityID)
	if err != nil {
		return nil, "", err
	}
	product, err := s.repos.Product.FindByID(ctx, activity.ProductID)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("%s-%s.ics", slug(product.Name), slug(activity.Name))
	return BuildICS(activity, product, s.now()), filename, nil
}

const icsStamp = "20060102T150405Z"

// BuildICS renders a one-hour VEVENT at the activity deadline.
func BuildICS(activity *entity.Activity, product *entity.Product, stamp time.Time) []byte {
	start := activity.Deadline.UTC()
	end := start.Add(time.Hour)

	retailers := make([]string, 0, len(product.Retailers))
	for _, r := range product.Retailers {
		retailers = append(retailers, r.Retailer)
	}
	location := "Grocery retail"
	if len(retailers) > 0 {
		location = strings.Join(retailers, ", ")
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Launch Planner//Nordic FMCG//EN",
		"CALSCALE:GREGORIAN",
		"BEGIN:VEVENT",
		"UID:" + activity.ID + "@launch-planner",
		"DTSTAMP:" + stamp.UTC().Format(icsStamp),
		"DTSTART:" + start.Format(icsStamp),
		"DTEND:" + end.Format(icsStamp),
		"SUMMARY:" + icsEscape(activity.Name+" - "+product.Name),
		"DESCRIPTION:" + icsEscape(fmt.Sprintf("%s\nProduct: %s\nGTIN: %s\nWeek: %s",
			activity.Description, product.Name, product.GTIN,
			schedule.Week{Year: schedule.ISOWeekOf(start).Year, Week: activity.DeadlineWeek})),
		"LOCATION:" + icsEscape(location),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

var icsReplacer = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

func icsEscape(s string) string {
	return icsReplacer.Replace(s)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == 'å', r == 'ä', r == 'ö':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
