package schedule

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var derivable = []ProductStatus{ProductDraft, ProductActive, ProductCompleted}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []ActivityStatus
		want     ProductStatus
	}{
		{"no activities", nil, ProductDraft},
		{"all not started", []ActivityStatus{ActivityNotStarted, ActivityNotStarted}, ProductDraft},
		{"one in progress", []ActivityStatus{ActivityNotStarted, ActivityInProgress}, ProductActive},
		{"one completed", []ActivityStatus{ActivityCompleted, ActivityNotStarted}, ProductActive},
		{"all completed", []ActivityStatus{ActivityCompleted, ActivityCompleted}, ProductCompleted},
		{"single completed", []ActivityStatus{ActivityCompleted}, ProductCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, current := range derivable {
				assert.Equal(t, tc.want, DeriveStatus(tc.statuses, current))
			}
		})
	}
}

func TestDeriveStatus_CompletedRevertsToActive(t *testing.T) {
	statuses := []ActivityStatus{ActivityCompleted, ActivityCompleted}
	assert.Equal(t, ProductCompleted, DeriveStatus(statuses, ProductActive))

	statuses[1] = ActivityInProgress
	assert.Equal(t, ProductActive, DeriveStatus(statuses, ProductCompleted))
}

func randomStatuses(r *rand.Rand) []ActivityStatus {
	all := []ActivityStatus{ActivityNotStarted, ActivityInProgress, ActivityCompleted}
	out := make([]ActivityStatus, r.Intn(6))
	for i := range out {
		out[i] = all[r.Intn(len(all))]
	}
	return out
}

func TestDeriveStatus_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		statuses := randomStatuses(r)

		// cancelled is sticky
		assert.Equal(t, ProductCancelled, DeriveStatus(statuses, ProductCancelled))

		for _, current := range derivable {
			once := DeriveStatus(statuses, current)
			assert.Equal(t, once, DeriveStatus(statuses, once), "not idempotent for %v", statuses)
		}
	}
}

func TestDeriveStatus_EmptyIsDraft(t *testing.T) {
	for _, current := range derivable {
		assert.Equal(t, ProductDraft, DeriveStatus([]ActivityStatus{}, current))
	}
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(nil))
	assert.Equal(t, 50, Progress([]ActivityStatus{ActivityCompleted, ActivityInProgress}))
	assert.Equal(t, 33, Progress([]ActivityStatus{ActivityCompleted, ActivityNotStarted, ActivityNotStarted}))
	assert.Equal(t, 100, Progress([]ActivityStatus{ActivityCompleted}))
}
