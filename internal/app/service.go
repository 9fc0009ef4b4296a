// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/okian/presence/internal/adapters/camera"
	"github.com/okian/presence/internal/adapters/persistence"
	"github.com/okian/presence/internal/adapters/pipeline"
	"github.com/okian/presence/internal/adapters/pipeline/worker"
	"github.com/okian/presence/internal/adapters/vision"
	"github.com/okian/presence/internal/domain/ledger"
	"github.com/okian/presence/internal/domain/match"
	"github.com/okian/presence/internal/domain/model"
	"github.com/okian/presence/internal/domain/overlay"
	"github.com/okian/presence/internal/domain/roster"
	"github.com/okian/presence/internal/domain/types"
	"github.com/okian/presence/pkg/logger"
)

// SourceFactory opens a camera source for a new session.
type SourceFactory func(ctx context.Context) (camera.Source, error)

// AttendanceReader reads back a day's attendance records.
type AttendanceReader interface {
	ledger.Recorder
	ReadDay(ctx context.Context, day string) ([]model.Record, error)
}

// Service orchestrates the roster, the attendance ledger, and the capture
// session, and exposes the operations the HTTP API and CLI need.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster   *roster.Roster
	ledger   *ledger.Ledger
	timers   *overlay.Timers
	hub      *pipeline.Hub
	backend  vision.Backend
	store    persistence.Store
	recorder AttendanceReader
	sources  SourceFactory

	// Configuration
	threshold       float64
	topK            int
	confidenceFloor float64
	faceSize        int
	pipelineOpts    []pipeline.Option

	// State
	started bool
	session *pipeline.Pipeline

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackend sets the vision backend.
func WithBackend(b vision.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithStore sets the roster store.
func WithStore(st persistence.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithRecorder sets the attendance recorder.
func WithRecorder(r AttendanceReader) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithSourceFactory sets how camera sources are opened for sessions.
func WithSourceFactory(f SourceFactory) Option {
	return func(s *Service) {
		if f != nil {
			s.sources = f
		}
	}
}

// WithThreshold sets the identity similarity threshold.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithTopK sets how many nearest embeddings vote per candidate.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithConfidenceFloor sets the minimum detection confidence.
func WithConfidenceFloor(floor float64) Option {
	return func(s *Service) {
		if floor >= 0 && floor <= 1 {
			s.confidenceFloor = floor
		}
	}
}

// WithFaceSize sets the embedder input crop size.
func WithFaceSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.faceSize = size
		}
	}
}

// WithPipelineOptions forwards options to new capture sessions.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(s *Service) {
		s.pipelineOpts = append(s.pipelineOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		threshold:       match.DefaultThreshold,
		topK:            match.DefaultTopK,
		confidenceFloor: 0.9,
		faceSize:        160,
		timers:          overlay.NewTimers(),
		hub:             pipeline.NewHub(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the roster from the store and prepares the service. It does
// not start a camera session.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.backend == nil {
		return ErrNoBackend
	}
	if s.store == nil {
		return ErrNoStore
	}
	if s.recorder == nil {
		return ErrNoRecorder
	}
	if s.sources == nil {
		return ErrNoSourceFactory
	}

	people, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}

	s.roster = roster.New(
		roster.WithPeople(people),
		roster.WithSaver(s.store),
	)
	s.ledger = ledger.New(
		ledger.WithRecorder(s.recorder),
	)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("people", len(people)),
		logger.Float64("threshold", s.threshold),
		logger.Int("top_k", s.topK),
	)
	return nil
}

// Stop ends any running session and releases resources.
func (s *Service) Stop(ctx context.Context) {
	if err := s.StopSession(ctx); err != nil && err != ErrNotRunning {
		s.logger.Warn(ctx, "stopping session", logger.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Warn(ctx, "closing vision backend", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing roster store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "service stopped")
}

// StartSession opens the camera and starts the recognition pipeline.
func (s *Service) StartSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.session != nil {
		return ErrSessionRunning
	}

	source, err := s.sources(ctx)
	if err != nil {
		return fmt.Errorf("opening camera: %w", err)
	}

	p := pipeline.New(
		source,
		s.backend,
		s.backend,
		worker.MatcherFunc(s.matchEmbedding),
		s.ledger,
		s.timers,
		s.hub,
		append([]pipeline.Option{
			pipeline.WithWorkerOptions(
				worker.WithConfidenceFloor(s.confidenceFloor),
				worker.WithFaceSize(s.faceSize),
			),
		}, s.pipelineOpts...)...,
	)
	s.session = p
	s.ledger.SetActive(true)

	go func() {
		defer func() {
			if cerr := source.Close(); cerr != nil {
				s.logger.Warn(context.Background(), "closing camera", logger.Error(cerr))
			}
			s.mu.Lock()
			if s.session == p {
				s.session = nil
			}
			s.mu.Unlock()
		}()
		if rerr := p.Run(context.Background()); rerr != nil {
			s.logger.Error(context.Background(), "session ended with error",
				logger.String("session", p.ID()),
				logger.Error(rerr),
			)
		}
	}()

	s.logger.Info(ctx, "session started", logger.String("session", p.ID()))
	return nil
}

// StopSession gracefully stops the running session.
func (s *Service) StopSession(ctx context.Context) error {
	s.mu.Lock()
	p := s.session
	s.mu.Unlock()

	if p == nil {
		return ErrNotRunning
	}

	if err := p.Stop(ctx); err != nil {
		return err
	}
	s.ledger.SetActive(false)
	s.logger.Info(ctx, "session stopped", logger.String("session", p.ID()))
	return nil
}

// SetAttendanceActive toggles attendance marking without touching the
// camera session. Recognition and rendering keep running while marks are
// suppressed.
func (s *Service) SetAttendanceActive(ctx context.Context, active bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	s.ledger.SetActive(active)
	s.logger.Info(ctx, "attendance toggled", logger.Bool("active", active))
	return nil
}

// Status reports the live state of the service.
func (s *Service) Status(ctx context.Context) types.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := s.session != nil
	st := types.Status{
		CameraActive: active,
	}
	if s.ledger != nil {
		st.AttendanceActive = s.ledger.Active()
	}
	if s.roster != nil {
		st.PeopleInDatabase = s.roster.Count(ctx)
	}
	if active {
		st.VisibleNames = s.timers.ActiveNames(time.Now())
	}
	return st
}

// Enroll extracts one embedding per usable image and appends them to the
// person's roster entry. Items lists a label per image for failure
// reporting. ErrNothingUsable is returned when no image yields an
// embedding.
func (s *Service) Enroll(ctx context.Context, name string, items []string, images [][]byte) (types.EnrollmentSummary, error) {
	summary := types.EnrollmentSummary{Name: name}

	var embeddings []model.Embedding
	for i, data := range images {
		item := fmt.Sprintf("image %d", i+1)
		if i < len(items) && items[i] != "" {
			item = items[i]
		}

		emb, reason := s.extractEmbedding(ctx, data)
		if reason != "" {
			summary.Failures = append(summary.Failures, types.EnrollmentFailure{Item: item, Reason: reason})
			continue
		}
		embeddings = append(embeddings, emb)
	}

	if len(embeddings) == 0 {
		return summary, ErrNothingUsable
	}

	if err := s.roster.Add(ctx, name, embeddings); err != nil {
		return summary, fmt.Errorf("adding %s to roster: %w", name, err)
	}
	summary.EmbeddingsAdded = len(embeddings)

	for _, p := range s.roster.List(ctx) {
		if p.Name == name {
			summary.TotalEmbeddings = p.EmbeddingCount
			break
		}
	}

	s.logger.Info(ctx, "person enrolled",
		logger.String("name", name),
		logger.Int("added", summary.EmbeddingsAdded),
		logger.Int("rejected", len(summary.Failures)),
	)
	return summary, nil
}

// extractEmbedding runs one uploaded image through the enrollment stages
// and returns a rejection reason when any stage fails.
func (s *Service) extractEmbedding(ctx context.Context, data []byte) (model.Embedding, string) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "decode failed"
	}
	rgba := overlay.ToRGBA(img)

	detections, err := s.backend.Detect(ctx, rgba)
	if err != nil {
		return nil, "detection failed"
	}
	if len(detections) == 0 {
		return nil, "no face"
	}

	det := detections[0]
	if det.Confidence < s.confidenceFloor {
		return nil, "confidence below floor"
	}

	crop, err := overlay.CropResize(rgba, det.Box, s.faceSize, s.faceSize)
	if err != nil {
		return nil, "empty region"
	}

	emb, err := s.backend.Embed(ctx, crop)
	if err != nil {
		return nil, "embedding failed"
	}
	return emb, ""
}

// People lists enrolled people with their embedding counts.
func (s *Service) People(ctx context.Context) []types.PersonInfo {
	return s.roster.List(ctx)
}

// DeletePerson removes a person from the roster.
func (s *Service) DeletePerson(ctx context.Context, name string) error {
	return s.roster.Remove(ctx, name)
}

// Attendance returns the records for one day (ledger.DayFormat).
func (s *Service) Attendance(ctx context.Context, day string) ([]types.AttendanceRecord, error) {
	if _, err := time.Parse(ledger.DayFormat, day); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadDay, day)
	}

	records, err := s.recorder.ReadDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("reading attendance for %s: %w", day, err)
	}

	out := make([]types.AttendanceRecord, len(records))
	for i, r := range records {
		out[i] = types.AttendanceRecord{
			Name: r.Name,
			Time: r.Time.Format("15:04:05"),
		}
	}
	return out, nil
}

// Subscribe registers a stream client with the session hub.
func (s *Service) Subscribe() (string, <-chan []byte) {
	return s.hub.Subscribe()
}

// Unsubscribe removes a stream client.
func (s *Service) Unsubscribe(id string) {
	s.hub.Unsubscribe(id)
}

// matchEmbedding resolves an embedding against the current roster.
func (s *Service) matchEmbedding(ctx context.Context, emb model.Embedding) string {
	snapshot := s.roster.Snapshot(ctx)
	candidates := make([]match.Candidate, len(snapshot))
	for i, p := range snapshot {
		candidates[i] = match.Candidate{Name: p.Name, Embeddings: p.Embeddings}
	}
	return match.Match(emb, candidates, s.threshold, s.topK)
}
