package jsonbackend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/FranksOps/seoscope/internal/storage"
)

// ensure jsonBackend implements storage.Backend
var _ storage.Backend = (*jsonBackend)(nil)

// maxLine bounds one NDJSON record.
const maxLine = 8 << 20

type jsonBackend struct {
	mu   sync.Mutex
	file *os.File
}

// New creates a new NDJSON-backed storage.Backend.
func New(filePath string) (storage.Backend, error) {
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}

	return &jsonBackend{
		file: f,
	}, nil
}

func (b *jsonBackend) Save(ctx context.Context, record *storage.ScanRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	return nil
}

func (b *jsonBackend) Get(ctx context.Context, id string) (*storage.ScanRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var found *storage.ScanRecord
	// The last line for an ID wins, so re-saved records read back updated.
	err := b.each(func(r *storage.ScanRecord) {
		if r.ID == id {
			found = r
		}
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, storage.ErrNotFound
	}
	return found, nil
}

func (b *jsonBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.ScanRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// NDJSON has no engine: read everything, filter in memory, then
	// reverse and slice.
	latest := make(map[string]int)
	var all []*storage.ScanRecord
	err := b.each(func(r *storage.ScanRecord) {
		if i, ok := latest[r.ID]; ok {
			all[i] = nil
		}
		latest[r.ID] = len(all)
		all = append(all, r)
	})
	if err != nil {
		return nil, err
	}

	filtered := []*storage.ScanRecord{}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i] != nil && filter.Match(all[i]) {
			filtered = append(filtered, all[i])
		}
	}

	return filter.Page(filtered), nil
}

// each decodes every record in file order. The caller holds mu.
func (b *jsonBackend) each(fn func(*storage.ScanRecord)) error {
	// Seek to the beginning of the file to read all entries
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	scanner := bufio.NewScanner(b.file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var r storage.ScanRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		fn(&r)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	return nil
}

func (b *jsonBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
