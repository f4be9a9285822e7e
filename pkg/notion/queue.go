package notion

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueueItem is one queued organization read from the Notion database.
type QueueItem struct {
	PageID string
	Name   string
	URL    string
	Notes  string
}

// QueryAll fetches all pages from a Notion database, handling pagination.
// Rate limiting is enforced by the Client (3 req/s by default).
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}

		next := &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
		if filter != nil {
			next.Filter = filter.Filter
			next.Sorts = filter.Sorts
			next.PageSize = filter.PageSize
		}
		req = next
	}

	return all, nil
}

// QueryQueuedOrgs fetches every organization with Status = "Queued" from
// the given database.
func QueryQueuedOrgs(ctx context.Context, c Client, dbID string) ([]QueueItem, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status: &notionapi.StatusFilterCondition{
				Equals: "Queued",
			},
		},
	}
	pages, err := QueryAll(ctx, c, dbID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "notion: query queued orgs")
	}

	items := make([]QueueItem, 0, len(pages))
	for _, page := range pages {
		items = append(items, PageToQueueItem(page))
	}
	return items, nil
}

// PageToQueueItem maps a queue page's Name/URL/Notes properties onto a
// QueueItem. Missing or differently-typed properties read as empty.
func PageToQueueItem(page notionapi.Page) QueueItem {
	item := QueueItem{PageID: string(page.ID)}

	if prop, ok := page.Properties["Name"]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			for _, rt := range tp.Title {
				item.Name += rt.PlainText
			}
		}
	}

	if prop, ok := page.Properties["URL"]; ok {
		if up, ok := prop.(*notionapi.URLProperty); ok {
			item.URL = up.URL
		}
	}

	if prop, ok := page.Properties["Notes"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			for _, rt := range rtp.RichText {
				item.Notes += rt.PlainText
			}
		}
	}

	item.Name = strings.TrimSpace(item.Name)
	item.URL = strings.TrimSpace(item.URL)
	item.Notes = strings.TrimSpace(item.Notes)

	return item
}

// MarkProfiled sets a queue page's status to Profiled and records the
// confidence score and completion time.
func MarkProfiled(ctx context.Context, c Client, pageID string, score float64) error {
	now := notionapi.Date(time.Now())
	_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			"Status": notionapi.StatusProperty{
				Status: notionapi.Status{Name: "Profiled"},
			},
			"Score": notionapi.NumberProperty{Number: score},
			"Last Profiled": notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &now},
			},
		},
	})
	if err != nil {
		return eris.Wrapf(err, "notion: mark page %s profiled", pageID)
	}
	return nil
}

// MarkFailed sets a queue page's status to Failed and records a truncated
// error message.
func MarkFailed(ctx context.Context, c Client, pageID string, runErr error) error {
	now := notionapi.Date(time.Now())
	msg := runErr.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			"Status": notionapi.StatusProperty{
				Status: notionapi.Status{Name: "Failed"},
			},
			"Error": notionapi.RichTextProperty{
				RichText: []notionapi.RichText{
					{Text: &notionapi.Text{Content: msg}},
				},
			},
			"Last Profiled": notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &now},
			},
		},
	})
	if err != nil {
		return eris.Wrapf(err, "notion: mark page %s failed", pageID)
	}
	return nil
}
