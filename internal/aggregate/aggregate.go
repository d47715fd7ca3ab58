// Package aggregate reduces per-link stats into per-item totals.
package aggregate

import "EngagementSync/internal/domain"

// Sum adds every field across results. Missing fields count as zero and an
// empty list yields zero totals.
func Sum(results []domain.LinkStats) domain.Totals {
	var t domain.Totals
	for _, r := range results {
		t.Views += int64(r.Views)
		t.Likes += int64(r.Likes)
		t.Comments += int64(r.Comments)
		t.Shares += int64(r.Shares)
	}
	return t
}

// Merge adds two batch summaries field by field.
func Merge(a, b domain.Summary) domain.Summary {
	return domain.Summary{
		TotalViews:    a.TotalViews + b.TotalViews,
		TotalLikes:    a.TotalLikes + b.TotalLikes,
		TotalComments: a.TotalComments + b.TotalComments,
		TotalShares:   a.TotalShares + b.TotalShares,
	}
}

// FromSummary converts server totals into item totals.
func FromSummary(s domain.Summary) domain.Totals {
	return domain.Totals{
		Views:    int64(s.TotalViews),
		Likes:    int64(s.TotalLikes),
		Comments: int64(s.TotalComments),
		Shares:   int64(s.TotalShares),
	}
}

// ToSummary converts totals back into the service's summary shape.
func ToSummary(t domain.Totals) domain.Summary {
	return domain.Summary{
		TotalViews:    domain.Count(t.Views),
		TotalLikes:    domain.Count(t.Likes),
		TotalComments: domain.Count(t.Comments),
		TotalShares:   domain.Count(t.Shares),
	}
}
