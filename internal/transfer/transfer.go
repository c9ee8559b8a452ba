// Package transfer implements the high-volume backup path: streaming export
// of the whole corpus and incremental import of large backup documents.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/url-catalog/urlcatalog/internal/domain"
	"github.com/url-catalog/urlcatalog/internal/logger"
	"github.com/url-catalog/urlcatalog/internal/storage"
)

const (
	// exportPageSize is the cursor batch for the export walk.
	exportPageSize = 500
	// sitemapBatchSize batches sitemap inserts on import.
	sitemapBatchSize = 100
	// urlBatchSize batches URL inserts on import. URL records dominate
	// volume and are simpler, so the batch runs an order of magnitude
	// larger than the sitemap batch.
	urlBatchSize = 1000
)

// ErrMalformedBackup indicates the incoming document is not a backup object.
var ErrMalformedBackup = errors.New("malformed backup document")

// exportSitemap and exportURL add a transport-only identifier to each
// exported record. The id is regenerated on import and never persisted.
type exportSitemap struct {
	ID string `json:"id"`
	domain.SitemapRecord
}

type exportURL struct {
	ID string `json:"id"`
	domain.URLRecord
}

// importSitemap and importURL absorb and discard any incoming identifier so
// imported records cannot collide with unrelated existing ones by id.
type importSitemap struct {
	ID json.RawMessage `json:"id"`
	domain.SitemapRecord
}

type importURL struct {
	ID json.RawMessage `json:"id"`
	domain.URLRecord
}

// Service implements backup export and import over the store.
type Service struct {
	store storage.Store
	log   logger.Interface
}

// NewService creates a transfer service.
func NewService(store storage.Store, log logger.Interface) *Service {
	return &Service{store: store, log: log}
}

// Export streams the whole corpus to w as a single JSON object with two
// arrays, sitemaps and urls. The urls array is produced by a cursor walk so
// memory stays constant regardless of corpus size. If the walk fails midway
// the brackets are still closed so the emitted document stays syntactically
// complete.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	sitemaps, err := s.store.AllSitemaps(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sitemaps: %w", err)
	}

	if _, err := io.WriteString(w, `{"sitemaps":[`); err != nil {
		return err
	}
	for i := range sitemaps {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if err := writeJSON(w, exportSitemap{ID: uuid.NewString(), SitemapRecord: sitemaps[i]}); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, `],"urls":[`); err != nil {
		return err
	}

	exported := 0
	walkErr := s.store.WalkURLs(ctx, exportPageSize, func(batch []domain.URLRecord) error {
		for i := range batch {
			if exported > 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			if err := writeJSON(w, exportURL{ID: uuid.NewString(), URLRecord: batch[i]}); err != nil {
				return err
			}
			exported++
		}
		return nil
	})

	if _, err := io.WriteString(w, `]}`); err != nil {
		return err
	}

	s.log.Info("export complete", "sitemaps", len(sitemaps), "urls", exported)
	return walkErr
}

// writeJSON marshals one value onto the stream without a trailing newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Import incrementally parses a backup document from r and batch-inserts its
// contents with duplicate tolerance. The payload is never materialized in
// memory; the decoder walks the top-level object one token at a time and
// drains each array as it appears. When clearFirst is set both collections
// are wiped before inserting. Counts are best-effort: a failing batch is
// logged and skipped, never fatal to the remaining batches.
func (s *Service) Import(ctx context.Context, r io.Reader, clearFirst bool) (*domain.TransferCounts, error) {
	if clearFirst {
		if err := s.store.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear collections: %w", err)
		}
	}

	counts := &domain.TransferCounts{}
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return counts, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return counts, fmt.Errorf("%w: expected object", ErrMalformedBackup)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return counts, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
		}
		key, _ := keyTok.(string)

		switch key {
		case "sitemaps":
			n, err := s.importSitemaps(ctx, dec)
			counts.SitemapsImported += n
			if err != nil {
				return counts, err
			}
		case "urls":
			n, err := s.importURLs(ctx, dec)
			counts.URLsImported += n
			if err != nil {
				return counts, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return counts, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
			}
		}
	}

	s.log.Info("import complete",
		"sitemaps_imported", counts.SitemapsImported,
		"urls_imported", counts.URLsImported,
		"cleared_first", clearFirst,
	)
	return counts, nil
}

// importSitemaps drains the sitemaps array in batches.
func (s *Service) importSitemaps(ctx context.Context, dec *json.Decoder) (int, error) {
	imported := 0
	batch := make([]domain.SitemapRecord, 0, sitemapBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		n, err := s.store.InsertSitemaps(ctx, batch)
		if err != nil {
			s.log.Error("sitemap batch insert failed, skipping batch",
				"size", len(batch), "error", err)
		} else {
			imported += n
		}
		batch = batch[:0]
	}

	err := drainArray(dec, func() error {
		var elem importSitemap
		if err := dec.Decode(&elem); err != nil {
			return err
		}
		batch = append(batch, elem.SitemapRecord)
		if len(batch) >= sitemapBatchSize {
			flush()
		}
		return nil
	})
	flush()
	if err != nil {
		return imported, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	return imported, nil
}

// importURLs drains the urls array in larger batches.
func (s *Service) importURLs(ctx context.Context, dec *json.Decoder) (int, error) {
	imported := 0
	batch := make([]domain.URLRecord, 0, urlBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		n, err := s.store.InsertURLs(ctx, batch)
		if err != nil {
			s.log.Error("URL batch insert failed, skipping batch",
				"size", len(batch), "error", err)
		} else {
			imported += n
		}
		batch = batch[:0]
	}

	err := drainArray(dec, func() error {
		var elem importURL
		if err := dec.Decode(&elem); err != nil {
			return err
		}
		batch = append(batch, elem.URLRecord)
		if len(batch) >= urlBatchSize {
			flush()
		}
		return nil
	})
	flush()
	if err != nil {
		return imported, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	return imported, nil
}

// drainArray consumes one JSON array from the decoder, invoking elem for
// each element.
func drainArray(dec *json.Decoder, elem func() error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return errors.New("expected array")
	}
	for dec.More() {
		if err := elem(); err != nil {
			return err
		}
	}
	_, err = dec.Token() // closing ']'
	return err
}
