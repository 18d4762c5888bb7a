package schedule

// DeriveStatus classifies a product from its activity states.
//
// A cancelled product stays cancelled. Otherwise: no activities is draft,
// all completed is completed, any started or completed activity is active,
// and anything else is draft.
func DeriveStatus(statuses []ActivityStatus, current ProductStatus) ProductStatus {
	if current == ProductCancelled {
		return ProductCancelled
	}
	if len(statuses) == 0 {
		return ProductDraft
	}

	completed, started := 0, 0
	for _, s := range statuses {
		switch s {
		case ActivityCompleted:
			completed++
		case ActivityInProgress:
			started++
		}
	}

	switch {
	case completed == len(statuses):
		return ProductCompleted
	case completed > 0 || started > 0:
		return ProductActive
	default:
		return ProductDraft
	}
}

// Progress returns the share of completed activities as a percentage.
func Progress(statuses []ActivityStatus) int {
	if len(statuses) == 0 {
		return 0
	}
	completed := 0
	for _, s := range statuses {
		if s == ActivityCompleted {
			completed++
		}
	}
	return completed * 100 / len(statuses)
}
