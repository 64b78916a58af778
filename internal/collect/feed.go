package collect

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// ParseFeedLinks returns the item links of an RSS or Atom document and the
// number of items that carried no link.
func ParseFeedLinks(feedText string) (links []string, missing int, err error) {
	feed, err := gofeed.NewParser().ParseString(feedText)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing feed: %w", err)
	}

	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" && strings.HasPrefix(item.GUID, "http") {
			link = item.GUID
		}
		if link == "" {
			missing++
			continue
		}
		links = append(links, link)
	}
	return links, missing, nil
}
