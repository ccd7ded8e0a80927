package history

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/logger"
)

// maxLineSize bounds a single history line.
const maxLineSize = 1 << 20

// FileRepository appends records to a file, one protojson object per line.
type FileRepository struct {
	// path is the history file location.
	path string
	// mu serializes appends and scans.
	mu sync.Mutex
}

// NewFileRepository creates a repository writing to path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Save appends record as a single line.
func (r *FileRepository) Save(_ context.Context, record *Record) error {
	msg, err := toStruct(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	data, err := protojson.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}

	if _, err = f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("write history file: %w", err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close history file: %w", err)
	}

	return nil
}

// Latest scans the whole file. Lines that cannot be decoded are skipped and logged.
func (r *FileRepository) Latest(ctx context.Context) (map[string]*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	latest := make(map[string]*Record)

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return latest, nil
		}

		return nil, fmt.Errorf("open history file: %w", err)
	}

	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0

	for scanner.Scan() {
		line++

		if len(scanner.Bytes()) == 0 {
			continue
		}

		var msg structpb.Struct
		if err := protojson.Unmarshal(scanner.Bytes(), &msg); err != nil {
			logger.WarnKV(ctx, "Skipping unreadable history line", "path", r.path, "line", line, "error", err)
			continue
		}

		record, err := fromStruct(&msg)
		if err != nil {
			logger.WarnKV(ctx, "Skipping invalid history record", "path", r.path, "line", line, "error", err)
			continue
		}

		keepLatest(latest, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history file: %w", err)
	}

	return latest, nil
}

// LatestFor returns the latest record of one house.
func LatestFor(ctx context.Context, repo Repository, name string) (*Record, error) {
	latest, err := repo.Latest(ctx)
	if err != nil {
		return nil, err
	}

	record, ok := latest[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	return record, nil
}

// Close is a no-op; the file is opened per call.
func (r *FileRepository) Close(context.Context) error {
	return nil
}
