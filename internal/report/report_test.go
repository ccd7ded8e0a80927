package report

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/smart-home/internal/audit"
	"github.com/oshokin/smart-home/internal/domain/house"
	"github.com/oshokin/smart-home/internal/repository/history"
)

//nolint:gochecknoglobals // Test fixture.
var reportDay = audit.ClockFunc(func() time.Time {
	return time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
})

func TestFileName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "report-2026-03-14-lakeside.csv", FileName(reportDay.Now(), "lakeside"))
}

// TestBuild covers both experiment groups.
func TestBuild(t *testing.T) {
	t.Parallel()

	lightsOn := 5*time.Minute + 7*time.Second

	body, err := Build(&history.Record{House: "lakeside", GroupExperiment: "1", LightsOn: lightsOn})
	require.NoError(t, err)
	require.Equal(t, "House Name,Light Usage Minute,Light Usage Second\nlakeside,5 minutes,7 seconds\n", string(body))

	body, err = Build(&history.Record{House: "downtown", GroupExperiment: "2", LightsOn: 10 * time.Minute})
	require.NoError(t, err)
	require.Equal(t,
		"House Name,Light Usage Minute,Light Usage Second,Estimated Cost\ndowntown,10 minutes,0 seconds,$0.50\n",
		string(body))
}

type fakeSource struct {
	records map[string]*history.Record
	err     error
}

func (f *fakeSource) Latest(context.Context) (map[string]*history.Record, error) {
	return f.records, f.err
}

// TestReporter_DirectorySink writes one file per house.
func TestReporter_DirectorySink(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "reports")
	source := &fakeSource{records: map[string]*history.Record{
		"lakeside": history.NewRecord("lakeside", "1", time.Minute, house.State{}, reportDay.Now()),
		"downtown": history.NewRecord("downtown", "2", time.Minute, house.State{}, reportDay.Now()),
	}}

	written, err := NewReporter(source, NewDirectorySink(dir), reportDay).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"report-2026-03-14-downtown.csv", "report-2026-03-14-lakeside.csv"}, written)

	body, err := os.ReadFile(filepath.Join(dir, "report-2026-03-14-downtown.csv"))
	require.NoError(t, err)
	require.Contains(t, string(body), "$0.05")
}

func TestReporter_EmptyHistory(t *testing.T) {
	t.Parallel()

	written, err := NewReporter(&fakeSource{}, NewDirectorySink(t.TempDir()), reportDay).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, written)

	_, err = NewReporter(&fakeSource{err: errors.New("boom")}, NewDirectorySink(t.TempDir()), nil).Run(context.Background())
	require.Error(t, err)
}

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.objects[*in.Bucket+"/"+*in.Key] = string(data)

	return &s3.PutObjectOutput{}, nil
}

// TestS3Sink uploads under the configured prefix.
func TestS3Sink(t *testing.T) {
	t.Parallel()

	bucket := &fakeBucket{objects: make(map[string]string)}
	sink := NewS3SinkWithClient(bucket, "reports", "daily")

	require.NoError(t, sink.Put(context.Background(), "report-2026-03-14-lakeside.csv", []byte("a,b\n")))
	require.Equal(t, "a,b\n", bucket.objects["reports/daily/report-2026-03-14-lakeside.csv"])
}
