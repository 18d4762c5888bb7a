package schedule

import "time"

// Reconcile reduces per-retailer launch weeks to the product's nominal launch week.
//
// Delisting products, and launch products without retailers, use fallback;
// unset fallback fields default to the ISO week of now. Otherwise the smallest
// week across all retailers wins, paired with that retailer's launch year. On
// ties the first retailer in input order, and its first qualifying week, is kept.
func Reconcile(productType ProductType, retailers []RetailerLaunch, fallback Week, now time.Time) Week {
	if productType == ProductTypeDelisting || len(retailers) == 0 {
		return withDefaults(fallback, now)
	}

	best := maxWeek + 1
	year := 0
	for _, r := range retailers {
		for _, w := range r.LaunchWeeks {
			if !ValidWeek(w) {
				continue
			}
			if w < best {
				best = w
				year = r.LaunchYear
			}
		}
	}

	if best > maxWeek {
		return withDefaults(fallback, now)
	}
	if year == 0 {
		year = withDefaults(fallback, now).Year
	}
	return Week{Year: year, Week: best}
}

func withDefaults(w Week, now time.Time) Week {
	current := ISOWeekOf(now)
	if w.Week == 0 {
		w.Week = current.Week
	}
	if w.Year == 0 {
		w.Year = current.Year
	}
	return w
}
