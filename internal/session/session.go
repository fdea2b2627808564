/*
 * Package session drives the capture loop: it pulls samples from a source
 * into a sliding window, estimates pitch per frame, gates the estimates and
 * resolves accepted ones to fretboard positions for a sink.
 */
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/metalblueberry/fretscribe/internal/config"
	"github.com/metalblueberry/fretscribe/internal/observe"
	"github.com/metalblueberry/fretscribe/internal/source"
	"github.com/metalblueberry/fretscribe/pkg/circular"
	"github.com/metalblueberry/fretscribe/pkg/fretboard"
	"github.com/metalblueberry/fretscribe/pkg/gate"
	"github.com/metalblueberry/fretscribe/pkg/pitch"
	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

/*
 * Session owns the detection gate state of one capture loop. ProcessFrame
 * is not safe for concurrent use; Run calls it from a single goroutine.
 */
type Session struct {
	id        string
	mode      config.Mode
	frameSize int
	hopSize   int
	estimator *pitch.Estimator
	peaks     *pitch.PeakPicker
	policy    gate.Policy
	state     gate.State
	resolver  *fretboard.Resolver
	sink      Sink
	metrics   *observe.Metrics
	limiter   *rate.Limiter
	clock     func() time.Time
}

/*
 * Option configures a [Session].
 */
type Option func(*Session)

/*
 * WithSink sets the event sink. The default discards events.
 */
func WithSink(s Sink) Option {
	return func(sess *Session) { sess.sink = s }
}

/*
 * WithMetrics sets the metric instruments. The default records nothing.
 */
func WithMetrics(m *observe.Metrics) Option {
	return func(sess *Session) { sess.metrics = m }
}

/*
 * WithID overrides the generated session identifier.
 */
func WithID(id string) Option {
	return func(sess *Session) { sess.id = id }
}

/*
 * New builds a session from cfg.
 */
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	t, err := cfg.BuildTuning()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	limit := rate.Inf
	if cfg.Session.MaxAnalysesPerSecond > 0 {
		limit = rate.Limit(cfg.Session.MaxAnalysesPerSecond)
	}

	s := &Session{
		id:        uuid.NewString(),
		mode:      cfg.Session.Mode,
		frameSize: cfg.Pitch.FrameSize,
		hopSize:   cfg.Session.HopSize,
		estimator: pitch.Create(cfg.EstimatorConfig(t)),
		peaks:     pitch.CreatePeakPicker(cfg.PeakConfig()),
		policy:    cfg.GatePolicy(),
		resolver:  fretboard.Create(t, cfg.ResolverOptions()...),
		sink:      SinkFunc(func(Event) {}),
		limiter:   rate.NewLimiter(limit, 1),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		m, err := observe.NewMetrics(noop.NewMeterProvider())
		if err != nil {
			return nil, fmt.Errorf("session: metrics: %w", err)
		}
		s.metrics = m
	}
	return s, nil
}

/*
 * ID returns the session identifier carried by every event.
 */
func (s *Session) ID() string { return s.id }

/*
 * State returns the detection gate state.
 */
func (s *Session) State() gate.State { return s.state }

/*
 * ProcessFrame runs one frame through estimator, gate and resolver and
 * emits the resulting event. It returns nil when the frame produced no
 * event.
 */
func (s *Session) ProcessFrame(ctx context.Context, frame pitch.Frame) (*Event, error) {
	start := time.Now()
	defer func() {
		s.metrics.AnalysisDuration.Record(ctx, time.Since(start).Seconds())
	}()
	s.metrics.FramesAnalyzed.Add(ctx, 1)

	est, err := s.estimator.Analyze(frame)
	if err != nil {
		return nil, fmt.Errorf("session: analyze: %w", err)
	}

	var peaks []pitch.Peak
	if s.mode == config.ModeChord {
		if peaks, err = s.peaks.Peaks(frame); err != nil {
			return nil, fmt.Errorf("session: peaks: %w", err)
		}
		/*
		 * A chord can defeat the time domain estimator, fall back to the
		 * lowest spectral peak.
		 */
		if est == nil && len(peaks) > 0 {
			if est, err = s.estimator.EstimateAt(frame, peaks[0].Frequency); err != nil {
				return nil, fmt.Errorf("session: analyze: %w", err)
			}
		}
	}
	if est == nil {
		return nil, nil
	}
	s.metrics.PitchEstimates.Add(ctx, 1)

	reason := s.policy.Reason(s.state, *est)
	next, ok := s.policy.Admit(s.state, *est)
	if !ok {
		s.metrics.RecordRejected(ctx, reason)
		return nil, nil
	}
	s.state = next
	s.metrics.NotesAccepted.Add(ctx, 1)

	positions, err := s.resolve(ctx, est.Frequency(), peaks)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		s.metrics.RecordRejected(ctx, observe.ReasonNoPosition)
		return nil, nil
	}

	ev := Event{
		SessionID:   s.id,
		TimestampMs: est.TimestampMs(),
		Frequency:   est.Frequency(),
		Confidence:  est.Confidence(),
		Positions:   positions,
	}
	if n, ok := tuning.NoteOf(est.Frequency()); ok {
		ev.Note = n.String()
		ev.Cents = n.Cents
	}

	slog.Debug("note accepted",
		"session_id", s.id,
		"timestamp_ms", ev.TimestampMs,
		"frequency", ev.Frequency,
		"note", ev.Note,
		"positions", len(positions),
	)
	s.sink.Emit(ev)
	return &ev, nil
}

/*
 * resolve maps an accepted frequency to positions. In chord mode the
 * spectral peaks are resolved together.
 */
func (s *Session) resolve(ctx context.Context, freq float64, peaks []pitch.Peak) ([]fretboard.Position, error) {
	if s.mode != config.ModeChord {
		p, ok := s.resolver.Resolve(freq)
		if !ok {
			return nil, nil
		}
		return []fretboard.Position{p}, nil
	}

	freqs := make([]float64, 0, len(peaks))
	for _, p := range peaks {
		freqs = append(freqs, p.Frequency)
	}
	if len(freqs) == 0 {
		freqs = append(freqs, freq)
	}

	a, err := s.resolver.ResolveChord(freqs)
	if err != nil {
		return nil, fmt.Errorf("session: resolve chord: %w", err)
	}
	if len(a) == 0 {
		s.metrics.RecordChord(ctx, observe.ChordUnplayable)
		return nil, nil
	}
	s.metrics.RecordChord(ctx, observe.ChordResolved)
	return a, nil
}

/*
 * Run reads src until it is exhausted or ctx is done. Offline sources are
 * analysed at every hop with timestamps taken from the sample position.
 * Realtime sources are analysed on a separate goroutine; frames arriving
 * while it is busy, or faster than the configured rate, are dropped.
 *
 * Run returns nil when the source is exhausted and ctx.Err() when
 * cancelled.
 */
func (s *Session) Run(ctx context.Context, src source.Source) error {
	if src.Realtime() {
		return s.runRealtime(ctx, src)
	}
	return s.runOffline(ctx, src)
}

/*
 * readHop fills buf from src. It returns the number of samples read and
 * whether the source is exhausted.
 */
func readHop(ctx context.Context, src source.Source, buf []float64) (int, bool, error) {
	filled := 0
	for filled < len(buf) {
		n, err := src.Read(ctx, buf[filled:])
		filled += n
		if errors.Is(err, io.EOF) {
			return filled, true, nil
		}
		if err != nil {
			return filled, false, err
		}
	}
	return filled, false, nil
}

func (s *Session) runOffline(ctx context.Context, src source.Source) error {
	window := circular.CreateWindow(s.frameSize)
	hop := make([]float64, s.hopSize)
	sampleRate := src.SampleRate()

	for {
		n, eof, err := readHop(ctx, src, hop)
		if err != nil {
			return err
		}
		if n > 0 {
			window.Enqueue(hop[:n]...)
		}

		if n > 0 && window.Full() {
			ts := int64(float64(window.Total()) * 1000 / sampleRate)
			if ts < 1 {
				ts = 1
			}
			frame := pitch.Frame{
				Samples:     window.Snapshot(),
				SampleRate:  sampleRate,
				TimestampMs: ts,
			}
			if _, err := s.ProcessFrame(ctx, frame); err != nil {
				return err
			}
		}

		if eof {
			return nil
		}
	}
}

func (s *Session) runRealtime(ctx context.Context, src source.Source) error {
	g, ctx := errgroup.WithContext(ctx)
	frames := make(chan pitch.Frame)

	/*
	 * Capture.
	 */
	g.Go(func() error {
		defer close(frames)
		window := circular.CreateWindow(s.frameSize)
		hop := make([]float64, s.hopSize)
		sampleRate := src.SampleRate()
		dropped := 0
		dropper, _ := src.(source.Dropper)
		var captureDropped uint64

		for {
			n, eof, err := readHop(ctx, src, hop)
			if err != nil {
				return err
			}
			window.Enqueue(hop[:n]...)

			if dropper != nil {
				if total := dropper.Dropped(); total > captureDropped {
					s.metrics.RecordDropped(ctx, observe.DropCapture, int64(total-captureDropped))
					slog.Debug("capture dropped samples", "session_id", s.id, "blocks", total-captureDropped)
					captureDropped = total
				}
			}

			if n > 0 && window.Full() {
				if !s.limiter.Allow() {
					dropped++
					s.metrics.RecordDropped(ctx, observe.DropAnalysis, 1)
				} else {
					frame := pitch.Frame{
						Samples:     window.Snapshot(),
						SampleRate:  sampleRate,
						TimestampMs: s.clock().UnixMilli(),
					}
					select {
					case frames <- frame:
						if dropped > 0 {
							slog.Debug("frames dropped", "session_id", s.id, "count", dropped)
							dropped = 0
						}
					default:
						dropped++
						s.metrics.RecordDropped(ctx, observe.DropAnalysis, 1)
					}
				}
			}

			if eof {
				return nil
			}
		}
	})

	/*
	 * Analysis.
	 */
	g.Go(func() error {
		for {
			select {
			case frame, ok := <-frames:
				if !ok {
					return nil
				}
				if _, err := s.ProcessFrame(ctx, frame); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}
