package csvbackend

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FranksOps/seoscope/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order. The score columns are for
// spreadsheets; the record column carries the full scan.
var headers = []string{
	"id",
	"url",
	"domain",
	"total",
	"content_structure",
	"brand_ranking",
	"keyword_visibility",
	"ai_trust",
	"warnings",
	"created_at",
	"record_json",
}

const recordColumn = 10

// New creates a new CSV-backed storage.Backend.
func New(filePath string) (storage.Backend, error) {
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}

	// Check if file is empty to write headers
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", filePath, err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	return &csvBackend{
		file: f,
	}, nil
}

func (b *csvBackend) Save(ctx context.Context, record *storage.ScanRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	s := record.Scores
	row := []string{
		record.ID,
		record.URL,
		record.Domain,
		strconv.Itoa(s.Total),
		strconv.Itoa(s.ContentStructure),
		strconv.Itoa(s.BrandRanking),
		strconv.Itoa(s.KeywordVisibility),
		strconv.Itoa(s.AITrust),
		strings.Join(record.Warnings, "; "),
		record.CreatedAt.Format(time.RFC3339Nano),
		string(data),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Ensure we're at the end of the file for appending (just in case)
	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	return nil
}

func (b *csvBackend) Get(ctx context.Context, id string) (*storage.ScanRecord, error) {
	records, err := b.readAll()
	if err != nil {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].ID == id {
			return records[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.ScanRecord, error) {
	records, err := b.readAll()
	if err != nil {
		return nil, err
	}

	// Newest first; a re-saved ID keeps only its latest row.
	seen := make(map[string]bool, len(records))
	filtered := []*storage.ScanRecord{}
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if filter.Match(r) {
			filtered = append(filtered, r)
		}
	}

	return filter.Page(filtered), nil
}

func (b *csvBackend) readAll() ([]*storage.ScanRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Seek to the beginning of the file to read all entries
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	// Read headers
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []*storage.ScanRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		if len(row) != len(headers) {
			continue // skip malformed rows
		}

		var rec storage.ScanRecord
		if err := json.Unmarshal([]byte(row[recordColumn]), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
