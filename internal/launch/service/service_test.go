package service

import (
	"sync"
	"testing"
	"time"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type published struct {
	Kind       string
	UserID     string
	ProductID  string
	ActivityID string
	Action     string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) add(e published) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) PublishProductUpdate(productID, action string) {
	p.add(published{Kind: "product", ProductID: productID, Action: action})
}

func (p *recordingPublisher) PublishActivityUpdate(productID, activityID, action string) {
	p.add(published{Kind: "activity", ProductID: productID, ActivityID: activityID, Action: action})
}

func (p *recordingPublisher) PublishUserActivityUpdate(userID, productID, activityID, action string) {
	p.add(published{Kind: "user", UserID: userID, ProductID: productID, ActivityID: activityID, Action: action})
}

func (p *recordingPublisher) actions(kind string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.Kind == kind {
			out = append(out, e.Action)
		}
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	repos     *repository.Repositories
	publisher *recordingPublisher
	users     *UserService
	products  *ProductService
	activity  *ActivityService
	templates *TemplateService
}

// fixedNow is Wednesday of ISO week 2, 2024
var fixedNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	pub := &recordingPublisher{}
	logger := zap.NewNop()

	users := NewUserService(repos, logger)
	products := NewProductService(repos, users, nil, pub, logger)
	products.now = func() time.Time { return fixedNow }
	activity := NewActivityService(repos, pub, logger)
	activity.now = func() time.Time { return fixedNow }

	return &testEnv{
		db:        db,
		repos:     repos,
		publisher: pub,
		users:     users,
		products:  products,
		activity:  activity,
		templates: NewTemplateService(repos.Template, logger),
	}
}
