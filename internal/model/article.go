package model

import "time"

// Article is the canonical record passed between the store, the index and
// the API. URL is the natural dedup key; a stored article never changes
// except for deletion by the retention sweep.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Category    string    `json:"category"`
	PublishTime time.Time `json:"publish_time"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// HasContent reports whether the full body was ever fetched. An empty body
// means "listing only", not an error.
func (a *Article) HasContent() bool {
	return a.Content != ""
}

// Snapshot copies the fields the index keeps alongside each vector. The
// copy is independent of the live store row.
func (a *Article) Snapshot() ArticleSnapshot {
	return ArticleSnapshot{
		ID:       a.ID,
		Title:    a.Title,
		Excerpt:  a.Excerpt,
		URL:      a.URL,
		Category: a.Category,
	}
}

// ArticleSnapshot is the denormalized metadata persisted next to a vector.
type ArticleSnapshot struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// ArticleStub is what the listing scraper yields before the body is fetched.
type ArticleStub struct {
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	URL         string `json:"url"`
	PublishTime string `json:"publish_time"`
}

// RetrievalResult pairs an index snapshot with its L2 distance to the query.
// Score is 1/(1+distance), so ascending distance equals descending score.
type RetrievalResult struct {
	Article  ArticleSnapshot `json:"article"`
	Distance float32         `json:"distance"`
	Score    float32         `json:"score"`
}
