// Package telemetry records best-effort job summaries. Summaries go to the
// blob store as small JSON documents and, when configured, to PostHog.
// Every failure here is swallowed: observability never fails a job.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"

	"github.com/backrunner/skillscat/internal/blob"
)

// PostHogAPIKey is set at compile time via ldflags.
var PostHogAPIKey string

// Recorder records job run summaries.
type Recorder interface {
	// RecordJobSummary stores a summary keyed by job name and period.
	RecordJobSummary(ctx context.Context, job string, summary map[string]interface{})
	Close()
}

// IsEnabled returns true if PostHog forwarding is enabled.
// Opt-out: enabled by default unless SKILLSCAT_TELEMETRY_ENABLED=false.
func IsEnabled() bool {
	return os.Getenv("SKILLSCAT_TELEMETRY_ENABLED") != "false" && PostHogAPIKey != ""
}

// New creates a recorder writing to the given blob store. PostHog forwarding
// is attached when an API key is compiled in and not opted out.
func New(store blob.Store) Recorder {
	r := &recorder{store: store, runID: uuid.NewString()}
	if IsEnabled() {
		client, err := posthog.NewWithConfig(PostHogAPIKey, posthog.Config{
			Endpoint: "https://us.i.posthog.com",
		})
		if err == nil {
			r.posthog = client
		}
	}
	return r
}

type recorder struct {
	store   blob.Store
	posthog posthog.Client
	runID   string
}

// RecordJobSummary writes metrics/{job}/{period}.json and forwards the
// summary to PostHog when configured. Failures are ignored.
func (r *recorder) RecordJobSummary(ctx context.Context, job string, summary map[string]interface{}) {
	period := time.Now().UTC().Format("2006-01-02T15")
	key := fmt.Sprintf("metrics/%s/%s.json", job, period)

	if data, err := json.Marshal(summary); err == nil {
		_ = r.store.Put(ctx, key, data, "application/json", map[string]string{"job": job})
	}

	if r.posthog != nil {
		props := posthog.NewProperties().Set("job", job)
		for k, v := range summary {
			props.Set(k, v)
		}
		_ = r.posthog.Enqueue(posthog.Capture{
			DistinctId: r.runID,
			Event:      "job_completed",
			Properties: props,
		})
	}
}

// Close flushes the PostHog client.
func (r *recorder) Close() {
	if r.posthog != nil {
		_ = r.posthog.Close()
	}
}

// Noop returns a recorder that does nothing, for tests and tools that do
// not wire a blob store.
func Noop() Recorder {
	return noopRecorder{}
}

type noopRecorder struct{}

func (noopRecorder) RecordJobSummary(context.Context, string, map[string]interface{}) {}
func (noopRecorder) Close()                                                           {}
