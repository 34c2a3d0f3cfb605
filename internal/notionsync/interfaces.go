package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService defines the subset of the Notion API the sync uses.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage updates an existing Notion page with the given properties.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries one page of results from a Notion database.
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// ArchivePage moves a page to the trash.
	ArchivePage(ctx context.Context, pageID string) error
}
