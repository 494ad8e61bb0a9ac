// Package news provides a client for the NewsAPI "everything" endpoint
// and the article model fed to the news correlator. Responses are cached
// in-process so repeated queries within a cycle do not burn quota.
package news

import "time"

// Source identifies where an article was published.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Article is a single news article. Immutable once fetched.
type Article struct {
	Source      Source    `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

// AgeAt returns how old the article is relative to now.
func (a *Article) AgeAt(now time.Time) time.Duration {
	return now.Sub(a.PublishedAt)
}

// searchResponse is the wire shape of the everything endpoint.
type searchResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}
