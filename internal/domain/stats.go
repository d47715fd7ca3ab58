package domain

// LinkStats is the per-link payload returned by the stats service.
type LinkStats struct {
	URL       string `json:"url"`
	Platform  string `json:"platform,omitempty"`
	Views     Count  `json:"views"`
	Likes     Count  `json:"likes"`
	Comments  Count  `json:"comments"`
	Shares    Count  `json:"shares"`
	ScrapedAt string `json:"scraped_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Summary holds server-computed totals over a batch.
type Summary struct {
	TotalViews    Count `json:"total_views"`
	TotalLikes    Count `json:"total_likes"`
	TotalComments Count `json:"total_comments"`
	TotalShares   Count `json:"total_shares"`
}

// FetchResult is the envelope of a single-link fetch.
type FetchResult struct {
	Success bool       `json:"success"`
	Data    *LinkStats `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// BatchResult is the envelope of a batch fetch.
type BatchResult struct {
	Success bool        `json:"success"`
	Data    []LinkStats `json:"data,omitempty"`
	Summary *Summary    `json:"summary,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Totals is the per-item reduction of link results.
type Totals struct {
	Views    int64
	Likes    int64
	Comments int64
	Shares   int64
}

// Stats drops shares, which items do not persist.
func (t Totals) Stats() Stats {
	return Stats{Views: t.Views, Likes: t.Likes, Comments: t.Comments}
}
