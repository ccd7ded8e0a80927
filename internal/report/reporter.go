package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/oshokin/smart-home/internal/audit"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/repository/history"
)

// Source provides the latest record of every house.
type Source interface {
	Latest(ctx context.Context) (map[string]*history.Record, error)
}

// Reporter turns the latest history into report files.
type Reporter struct {
	source Source
	sink   Sink
	clock  audit.Clock
}

// NewReporter creates a reporter. A nil clock reads the system time.
func NewReporter(source Source, sink Sink, clock audit.Clock) *Reporter {
	if clock == nil {
		clock = audit.SystemClock
	}

	return &Reporter{
		source: source,
		sink:   sink,
		clock:  clock,
	}
}

// Run writes one report per house and returns the names written.
// A failing house does not stop the others; the first error is returned.
func (r *Reporter) Run(ctx context.Context) ([]string, error) {
	ctx = logger.WithName(ctx, "reporter")

	latest, err := r.source.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	if len(latest) == 0 {
		logger.InfoKV(ctx, "No history found, skipping report generation")
		return nil, nil
	}

	houses := make([]string, 0, len(latest))
	for name := range latest {
		houses = append(houses, name)
	}

	sort.Strings(houses)

	var (
		today    = r.clock.Now()
		written  = make([]string, 0, len(houses))
		firstErr error
	)

	for _, name := range houses {
		fileName := FileName(today, name)

		err := r.write(ctx, fileName, latest[name])
		if err != nil {
			logger.ErrorKV(ctx, "Failed to write report", "house", name, "error", err)

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		written = append(written, fileName)
	}

	logger.InfoKV(ctx, "Report generated", "files", len(written))

	return written, firstErr
}

func (r *Reporter) write(ctx context.Context, name string, record *history.Record) error {
	body, err := Build(record)
	if err != nil {
		return err
	}

	return r.sink.Put(ctx, name, body)
}
