package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"podslice/internal/config"
	"podslice/internal/logging"
	"podslice/internal/notifications"
	"podslice/internal/queue"
	"podslice/internal/services"
	"podslice/internal/stage"
	"podslice/internal/testsupport"
)

// fakeExecutor scripts one stage's behavior per attempt.
type fakeExecutor struct {
	mu      sync.Mutex
	name    string
	errs    []error // consumed per attempt; nil entries succeed
	calls   int
	apply   func(job *queue.Job)
	sawJobs []queue.Job
}

func (f *fakeExecutor) Execute(_ context.Context, job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sawJobs = append(f.sawJobs, *job)
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return f.errs[idx]
	}
	if f.apply != nil {
		f.apply(job)
	}
	return nil
}

func (f *fakeExecutor) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(f.name)
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeNotifier records terminal events.
type fakeNotifier struct {
	mu     sync.Mutex
	ready  []notifications.ReadyPayload
	failed []notifications.FailedPayload
}

func (f *fakeNotifier) EpisodeReady(_ context.Context, p notifications.ReadyPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = append(f.ready, p)
	return nil
}

func (f *fakeNotifier) EpisodeFailed(_ context.Context, p notifications.FailedPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, p)
	return nil
}

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

func (f *fakeNotifier) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ready), len(f.failed)
}

type fixture struct {
	cfg      *config.Config
	store    *queue.Store
	manager  *Manager
	notifier *fakeNotifier

	transcribe *fakeExecutor
	summarize  *fakeExecutor
	synthesize *fakeExecutor
	persist    *fakeExecutor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	f := &fixture{
		cfg:      cfg,
		store:    store,
		notifier: &fakeNotifier{},
		transcribe: &fakeExecutor{name: "transcriber", apply: func(job *queue.Job) {
			job.Transcript = "a transcript"
			job.SourceDurationSeconds = 90
		}},
		summarize: &fakeExecutor{name: "scriptgen", apply: func(job *queue.Job) {
			job.EpisodeTitle = "Deep Dive"
			job.SummaryJSON = `{"topics":["x"]}`
			job.Script = "Welcome.\nGlad to be here."
		}},
		synthesize: &fakeExecutor{name: "synth", apply: func(job *queue.Job) {
			job.AudioFile = "/tmp/audio.mp3"
			job.AudioDurationSeconds = 12.5
		}},
		persist: &fakeExecutor{name: "publisher", apply: func(job *queue.Job) {
			job.AudioKey = "episodes/1/audio.mp3"
			job.AudioURI = "https://cdn.example.com/episodes/1/audio.mp3"
		}},
	}
	f.manager = NewManagerWithDependencies(cfg, store, logging.NewNop(), f.notifier, map[queue.Stage]stage.Executor{
		queue.StageTranscribing: f.transcribe,
		queue.StageSummarizing:  f.summarize,
		queue.StageSynthesizing: f.synthesize,
		queue.StagePersisting:   f.persist,
	})
	// Tests drive retries synchronously; no real waiting.
	f.manager.policy.transientBackoffBase = 0
	f.manager.policy.quotaBackoffBase = 0
	return f
}

func (f *fixture) submit(t *testing.T) int64 {
	t.Helper()
	id, err := f.manager.Submit(context.Background(), Request{
		SourceType:  queue.SourceVideo,
		SourceRef:   "https://example.com/talk",
		RequestedBy: "user-1",
		VoiceID:     "voice-1",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return id
}

// advanceN steps the job n times, failing the test on step errors.
func (f *fixture) advanceN(t *testing.T, id int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := f.manager.Advance(context.Background(), id); err != nil {
			t.Fatalf("Advance step %d: %v", i+1, err)
		}
	}
}

func (f *fixture) job(t *testing.T, id int64) *queue.Job {
	t.Helper()
	job, err := f.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job == nil {
		t.Fatalf("job %d not found", id)
	}
	return job
}

func TestHappyPathEmitsExactlyOneReadyEvent(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t)

	// activation + four stages
	f.advanceN(t, id, 5)

	job := f.job(t, id)
	if job.Stage != queue.StageCompleted {
		t.Fatalf("stage = %s, want completed", job.Stage)
	}
	if job.Transcript == "" || job.Script == "" || job.AudioURI == "" {
		t.Fatalf("artifacts missing: %#v", job)
	}
	ready, failed := f.notifier.counts()
	if ready != 1 || failed != 0 {
		t.Fatalf("events: ready=%d failed=%d", ready, failed)
	}
	payload := f.notifier.ready[0]
	if payload.JobID != id || payload.OwnerID != "user-1" || payload.EpisodeTitle != "Deep Dive" {
		t.Fatalf("unexpected ready payload: %+v", payload)
	}
	if payload.AudioURI != "https://cdn.example.com/episodes/1/audio.mp3" || payload.DurationSeconds != 12.5 {
		t.Fatalf("unexpected ready payload: %+v", payload)
	}

	// Further advances on a terminal job are no-ops.
	f.advanceN(t, id, 3)
	if ready, failed := f.notifier.counts(); ready != 1 || failed != 0 {
		t.Fatalf("terminal job re-advanced: ready=%d failed=%d", ready, failed)
	}
}

func TestUnsupportedContentFailsImmediately(t *testing.T) {
	f := newFixture(t)
	f.transcribe.errs = []error{
		services.Wrap(services.ErrUnsupported, "transcribing", "resolve source", "not a fetchable media URL", nil),
	}
	id := f.submit(t)

	f.advanceN(t, id, 2) // activation + one failing attempt

	job := f.job(t, id)
	if job.Stage != queue.StageFailed {
		t.Fatalf("stage = %s, want failed", job.Stage)
	}
	if job.LastErrorClassification != string(services.ClassUnsupported) {
		t.Fatalf("classification = %q", job.LastErrorClassification)
	}
	if f.transcribe.callCount() != 1 {
		t.Fatalf("transcribe attempts = %d, want 1 (zero retries)", f.transcribe.callCount())
	}
	ready, failed := f.notifier.counts()
	if ready != 0 || failed != 1 {
		t.Fatalf("events: ready=%d failed=%d", ready, failed)
	}
	payload := f.notifier.failed[0]
	if payload.Classification != string(services.ClassUnsupported) {
		t.Fatalf("failed payload = %+v", payload)
	}
	if payload.Message != services.ClassUnsupported.Reason() {
		t.Fatalf("raw provider text leaked into event: %q", payload.Message)
	}
}

func TestSynthesizeFallsBackToSecondaryOnThirdAttempt(t *testing.T) {
	f := newFixture(t)
	transient := services.Wrap(services.ErrTransient, "synthesizing", "synthesize primary", "http 503", nil)
	f.synthesize.errs = []error{transient, transient, nil}
	id := f.submit(t)

	// activation, transcribe, summarize, then three synthesize attempts,
	// then persist.
	f.advanceN(t, id, 7)

	job := f.job(t, id)
	if job.Stage != queue.StageCompleted {
		t.Fatalf("stage = %s, want completed", job.Stage)
	}
	if job.TTSProvider != queue.TTSSecondary {
		t.Fatalf("provider = %s, want secondary", job.TTSProvider)
	}
	if f.synthesize.callCount() != 3 {
		t.Fatalf("synthesize attempts = %d, want 3", f.synthesize.callCount())
	}
	f.synthesize.mu.Lock()
	providers := []queue.TTSProvider{
		f.synthesize.sawJobs[0].TTSProvider,
		f.synthesize.sawJobs[1].TTSProvider,
		f.synthesize.sawJobs[2].TTSProvider,
	}
	f.synthesize.mu.Unlock()
	want := []queue.TTSProvider{queue.TTSPrimary, queue.TTSPrimary, queue.TTSSecondary}
	for i := range want {
		if providers[i] != want[i] {
			t.Fatalf("attempt %d used %s, want %s", i+1, providers[i], want[i])
		}
	}
}

func TestSynthesizeExhaustsCeilingThenFails(t *testing.T) {
	f := newFixture(t)
	transient := services.Wrap(services.ErrTransient, "synthesizing", "synthesize", "http 503", nil)
	f.synthesize.errs = []error{transient, transient, transient, transient, transient}
	id := f.submit(t)

	f.advanceN(t, id, 8) // activation + 2 stages + 5 synthesize attempts

	job := f.job(t, id)
	if job.Stage != queue.StageFailed {
		t.Fatalf("stage = %s, want failed", job.Stage)
	}
	if f.synthesize.callCount() != 5 {
		t.Fatalf("synthesize attempts = %d, want 5", f.synthesize.callCount())
	}
	ready, failed := f.notifier.counts()
	if ready != 0 || failed != 1 {
		t.Fatalf("events: ready=%d failed=%d", ready, failed)
	}
}

func TestTransientRetriesRespectCeilingOutsideSynthesize(t *testing.T) {
	f := newFixture(t)
	transient := services.Wrap(services.ErrTransient, "transcribing", "transcribe", "http 502", nil)
	f.transcribe.errs = []error{transient, transient, transient, transient}
	id := f.submit(t)

	f.advanceN(t, id, 6)

	job := f.job(t, id)
	if job.Stage != queue.StageFailed {
		t.Fatalf("stage = %s, want failed", job.Stage)
	}
	if f.transcribe.callCount() != 3 {
		t.Fatalf("transcribe attempts = %d, want 3", f.transcribe.callCount())
	}
}

func TestUnknownErrorsGetOneRetry(t *testing.T) {
	f := newFixture(t)
	f.summarize.errs = []error{errors.New("nil map write"), errors.New("nil map write")}
	id := f.submit(t)

	f.advanceN(t, id, 6)

	job := f.job(t, id)
	if job.Stage != queue.StageFailed {
		t.Fatalf("stage = %s, want failed", job.Stage)
	}
	if job.LastErrorClassification != string(services.ClassUnknown) {
		t.Fatalf("classification = %q", job.LastErrorClassification)
	}
	if f.summarize.callCount() != 2 {
		t.Fatalf("summarize attempts = %d, want 2", f.summarize.callCount())
	}
}

func TestPanickingExecutorIsContainedAsUnknown(t *testing.T) {
	f := newFixture(t)
	f.transcribe.apply = func(*queue.Job) { panic("boom") }
	id := f.submit(t)

	f.advanceN(t, id, 4) // activation + 2 panicking attempts + no-op

	job := f.job(t, id)
	if job.Stage != queue.StageFailed {
		t.Fatalf("stage = %s, want failed", job.Stage)
	}
	if job.LastErrorClassification != string(services.ClassUnknown) {
		t.Fatalf("classification = %q", job.LastErrorClassification)
	}
}

func TestBackoffGateDefersNextAttempt(t *testing.T) {
	f := newFixture(t)
	f.manager.policy.transientBackoffBase = time.Hour
	transient := services.Wrap(services.ErrTransient, "transcribing", "transcribe", "http 502", nil)
	f.transcribe.errs = []error{transient}
	id := f.submit(t)

	f.advanceN(t, id, 2) // activation + failing attempt schedules retry

	job := f.job(t, id)
	if job.Stage != queue.StageTranscribing {
		t.Fatalf("stage = %s, want transcribing", job.Stage)
	}
	if job.NextAttemptAt == nil {
		t.Fatal("backoff gate not recorded")
	}

	// Gated job: further advances are no-ops until the gate passes.
	f.advanceN(t, id, 3)
	if f.transcribe.callCount() != 1 {
		t.Fatalf("gated job re-attempted: %d calls", f.transcribe.callCount())
	}
}

func TestConcurrentDuplicateAdvancesCommitOnce(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t)
	f.advanceN(t, id, 4) // stop just before persist completes the job

	job := f.job(t, id)
	if job.Stage != queue.StagePersisting {
		t.Fatalf("stage = %s, want persisting", job.Stage)
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = f.manager.Advance(context.Background(), id)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}

	job = f.job(t, id)
	if job.Stage != queue.StageCompleted {
		t.Fatalf("stage = %s, want completed", job.Stage)
	}
	ready, failed := f.notifier.counts()
	if ready != 1 || failed != 0 {
		t.Fatalf("duplicate advances emitted ready=%d failed=%d", ready, failed)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []Request{
		{SourceType: queue.SourceVideo, SourceRef: "https://example.com/a"},                            // no requester
		{SourceType: queue.SourceVideo, RequestedBy: "u"},                                             // no source
		{SourceType: queue.SourceVideo, SourceRef: "not-a-url", RequestedBy: "u"},                     // bad URL
		{SourceType: queue.SourceVideo, SourceRef: "ftp://example.com/a", RequestedBy: "u"},           // bad scheme
		{SourceType: queue.SourceNews, SourceRef: "topic without sources", RequestedBy: "u"},          // no separator
		{SourceType: queue.SourceNews, SourceRef: "topic|", RequestedBy: "u"},                         // empty source list
		{SourceType: "podcast", SourceRef: "https://example.com/a", RequestedBy: "u"},                 // unknown type
	}
	for i, req := range cases {
		if _, err := f.manager.Submit(ctx, req); services.ClassificationOf(err) != services.ClassInvalid {
			t.Errorf("case %d: expected invalid_input, got %v", i, err)
		}
	}

	if _, err := f.manager.Submit(ctx, Request{
		SourceType:  queue.SourceNews,
		SourceRef:   "ai chips|https://example.com/a,https://example.com/b",
		RequestedBy: "u",
	}); err != nil {
		t.Errorf("valid news submit rejected: %v", err)
	}
}

func TestAdvanceUnknownJob(t *testing.T) {
	f := newFixture(t)
	if err := f.manager.Advance(context.Background(), 4242); err == nil {
		t.Fatal("expected error for missing job")
	}
}

func TestQuotaAtSynthesizeKeepsPrimaryProvider(t *testing.T) {
	f := newFixture(t)
	quota := services.Wrap(services.ErrQuota, "synthesizing", "synthesize primary", "http 429", nil)
	f.synthesize.errs = []error{quota, quota, nil}
	id := f.submit(t)

	f.advanceN(t, id, 7)

	job := f.job(t, id)
	if job.Stage != queue.StageCompleted {
		t.Fatalf("stage = %s, want completed", job.Stage)
	}
	if job.TTSProvider != queue.TTSPrimary {
		t.Fatalf("provider = %s, want primary after quota retries", job.TTSProvider)
	}
	if f.synthesize.callCount() != 3 {
		t.Fatalf("synthesize attempts = %d, want 3", f.synthesize.callCount())
	}
}

func TestQuotaFailuresUseQuotaClassification(t *testing.T) {
	f := newFixture(t)
	quota := services.Wrap(services.ErrQuota, "summarizing", "generation request", "http 429", nil)
	f.summarize.errs = []error{quota, quota, quota}
	id := f.submit(t)

	f.advanceN(t, id, 6)

	job := f.job(t, id)
	if job.Stage != queue.StageFailed {
		t.Fatalf("stage = %s, want failed", job.Stage)
	}
	if job.LastErrorClassification != string(services.ClassQuota) {
		t.Fatalf("classification = %q", job.LastErrorClassification)
	}
	if f.summarize.callCount() != 3 {
		t.Fatalf("summarize attempts = %d, want 3", f.summarize.callCount())
	}
}
