package eodhd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ternarybob/newsdesk/internal/interfaces"
)

// NewsSource adapts the EODHD client to the interfaces.NewsVendor contract.
type NewsSource struct {
	client *Client
}

// NewNewsSource creates a news source backed by the given client.
func NewNewsSource(client *Client) *NewsSource {
	return &NewsSource{client: client}
}

// FetchNews retrieves up to limit articles for a vendor-format symbol.
func (s *NewsSource) FetchNews(ctx context.Context, symbol string, limit int) ([]interfaces.VendorArticle, error) {
	items, err := s.client.GetNews(ctx, []string{symbol}, WithLimit(limit))
	if err != nil {
		return nil, err
	}

	articles := make([]interfaces.VendorArticle, 0, len(items))
	for _, item := range items {
		articles = append(articles, interfaces.VendorArticle{
			ExternalID:  externalID(item.Link),
			Title:       strings.TrimSpace(item.Title),
			Content:     strings.TrimSpace(item.Content),
			URL:         item.Link,
			Symbols:     item.Symbols,
			PublishedAt: item.Date,
		})
	}
	return articles, nil
}

// externalID derives a stable identifier from the article link. The vendor
// has no article IDs of its own, but links are unique per article.
func externalID(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:16])
}
