// Package notionsync mirrors the payment ledger into a Notion database.
// Pages are matched on the Transaction ID property, so repeated syncs
// update pages in place instead of duplicating them.
package notionsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/dvloznov/edufin/internal/logger"
	"github.com/jomei/notionapi"
)

// Options control a full sync.
type Options struct {
	// DryRun logs intended changes without calling the write APIs.
	DryRun bool
	// Prune archives pages whose transaction is no longer in the ledger.
	Prune bool
}

// Stats counts what a sync did.
type Stats struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// Syncer mirrors entries into one database. Safe for concurrent use.
type Syncer struct {
	svc        NotionService
	databaseID string

	mu    sync.Mutex
	index map[string]string // transaction id -> page id
}

// NewSyncer returns a syncer for databaseID.
func NewSyncer(svc NotionService, databaseID string) *Syncer {
	return &Syncer{svc: svc, databaseID: databaseID}
}

// SyncPayments pushes every ledger entry to Notion.
func (s *Syncer) SyncPayments(ctx context.Context, store ledger.Store, opts Options) (Stats, error) {
	log := logger.FromContext(ctx)
	var stats Stats

	entries, err := store.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("SyncPayments: list ledger: %w", err)
	}
	log.Info().Int("entry_count", len(entries)).Bool("dry_run", opts.DryRun).Msg("Starting payment sync to Notion")

	pages, err := queryAllNotionPages(ctx, s.svc, s.databaseID)
	if err != nil {
		return stats, fmt.Errorf("SyncPayments: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = indexPages(pages)

	if opts.Prune {
		valid := make(map[string]bool, len(entries))
		for _, e := range entries {
			valid[e.TransactionID] = true
		}
		for _, page := range pages {
			txID := extractTransactionID(page)
			if txID != "" && valid[txID] {
				continue
			}
			if opts.DryRun {
				log.Info().Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
				stats.Archived++
				continue
			}
			if err := s.svc.ArchivePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
				stats.Failed++
				continue
			}
			delete(s.index, txID)
			stats.Archived++
		}
	}

	for _, e := range entries {
		_, exists := s.index[e.TransactionID]
		if opts.DryRun {
			if exists {
				stats.Updated++
			} else {
				stats.Created++
			}
			continue
		}
		created, err := s.upsertLocked(ctx, e)
		if err != nil {
			log.Warn().Err(err).Str("transaction_id", e.TransactionID).Msg("Failed to sync payment")
			stats.Failed++
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg("Payment sync completed")
	return stats, nil
}

// Mirror upserts a single entry, loading the page index on first use.
func (s *Syncer) Mirror(ctx context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		pages, err := queryAllNotionPages(ctx, s.svc, s.databaseID)
		if err != nil {
			return fmt.Errorf("Mirror: %w", err)
		}
		s.index = indexPages(pages)
	}
	if _, err := s.upsertLocked(ctx, e); err != nil {
		return fmt.Errorf("Mirror: %s: %w", e.TransactionID, err)
	}
	return nil
}

func (s *Syncer) upsertLocked(ctx context.Context, e ledger.Entry) (created bool, err error) {
	props := EntryToNotionProperties(e)
	if pageID, ok := s.index[e.TransactionID]; ok {
		_, err := s.svc.UpdatePage(ctx, pageID, props)
		return false, err
	}
	page, err := s.svc.CreatePage(ctx, s.databaseID, props)
	if err != nil {
		return false, err
	}
	s.index[e.TransactionID] = string(page.ID)
	return true, nil
}

func indexPages(pages []notionapi.Page) map[string]string {
	index := make(map[string]string, len(pages))
	for _, p := range pages {
		if txID := extractTransactionID(p); txID != "" {
			index[txID] = string(p.ID)
		}
	}
	return index
}

// queryAllNotionPages follows the cursor until every page is read.
func queryAllNotionPages(ctx context.Context, svc NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor
	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}
		resp, err := svc.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		all = append(all, resp.Results...)
		if !resp.HasMore {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}
