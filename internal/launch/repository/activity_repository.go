package repository

import (
	"context"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityRepository stores activities and their comments
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates an ActivityRepository
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// FindByID loads one activity with its comments
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*entity.Activity, error) {
	var activity entity.Activity
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&activity).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &activity, nil
}

// Update saves the activity's own columns
func (r *ActivityRepository) Update(ctx context.Context, activity *entity.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(activity).Error
}

// SaveSchedule writes recomputed deadlines back
func (r *ActivityRepository) SaveSchedule(ctx context.Context, activities []entity.Activity) error {
	db := r.db.WithContext(ctx)
	for _, a := range activities {
		err := db.Model(&entity.Activity{}).
			Where("id = ?", a.ID).
			Updates(map[string]interface{}{
				"deadline":      a.Deadline,
				"deadline_week": a.DeadlineWeek,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByProduct returns a product's activities in generation order
func (r *ActivityRepository) ListByProduct(ctx context.Context, productID string) ([]entity.Activity, error) {
	var activities []entity.Activity
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Scopes(orderActivities).
		Find(&activities).Error
	return activities, err
}

// StatusesByProduct returns the status of every activity of a product
func (r *ActivityRepository) StatusesByProduct(ctx context.Context, productID string) ([]schedule.ActivityStatus, error) {
	var statuses []schedule.ActivityStatus
	err := r.db.WithContext(ctx).
		Model(&entity.Activity{}).
		Where("product_id = ?", productID).
		Pluck("status", &statuses).Error
	return statuses, err
}

// ListByAssignee returns a user's activities, earliest deadline first
func (r *ActivityRepository) ListByAssignee(ctx context.Context, userID string) ([]entity.Activity, error) {
	var activities []entity.Activity
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("assignee_id = ?", userID).
		Scopes(orderByDeadline).
		Find(&activities).Error
	return activities, err
}

// ClearAssignee unassigns every activity held by a user
func (r *ActivityRepository) ClearAssignee(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Activity{}).
		Where("assignee_id = ?", userID).
		Updates(map[string]interface{}{"assignee_id": nil, "assignee_name": ""}).Error
}

// AddComment appends a comment
func (r *ActivityRepository) AddComment(ctx context.Context, comment *entity.ActivityComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListComments returns comments oldest first
func (r *ActivityRepository) ListComments(ctx context.Context, activityID string) ([]entity.ActivityComment, error) {
	var comments []entity.ActivityComment
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
