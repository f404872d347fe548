// Package filesink appends log messages to time-bucketed files.
//
// A Sink maps the current time to a file path:
//
//	{expanded directory}/{strftime(filename template, bucket start)}
//
// where the bucket is a fixed window of Granularity seconds anchored to
// local midnight. Each Write appends the message with a single O_APPEND
// write and notifies registered listeners.
package filesink

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ncruces/go-strftime"

	"github.com/Aman-CERP/timelog/internal/errors"
	"github.com/Aman-CERP/timelog/internal/expand"
	"github.com/Aman-CERP/timelog/internal/logger"
)

// pathCacheSize bounds the number of remembered bucket paths. Only the
// current bucket is normally hit; a few extra cover callers resolving
// nearby times explicitly.
const pathCacheSize = 16

// State is the lifecycle state of a Sink.
type State int

const (
	// StateUnconfigured is the zero-value Sink, not created with New.
	StateUnconfigured State = iota
	// StateConfigured means no path is cached.
	StateConfigured
	// StatePathResolved means at least one path is cached.
	StatePathResolved
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StatePathResolved:
		return "path-resolved"
	default:
		return "unconfigured"
	}
}

// Sink is a rotating, append-only file destination.
//
// All methods are safe for concurrent use. Listeners run while the sink's
// lock is held and must not call back into the same Sink.
type Sink struct {
	mu       sync.Mutex
	cfg      Config
	expander expand.Expander
	clock    func() time.Time
	location *time.Location
	fileMode fs.FileMode
	dirMode  fs.FileMode
	paths    *lru.Cache[int64, string]
	state    State
	log      *slog.Logger

	listeners listenerSet
}

var _ logger.Sink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithExpander sets the directory template expander. Without one the
// directory template is used verbatim.
func WithExpander(e expand.Expander) Option {
	return func(s *Sink) {
		s.expander = e
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Sink) {
		s.clock = clock
	}
}

// WithLocation sets the zone used for bucketing and file name formatting
// (default time.Local).
func WithLocation(loc *time.Location) Option {
	return func(s *Sink) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithFileMode sets the permission bits of newly created log files.
func WithFileMode(mode fs.FileMode) Option {
	return func(s *Sink) {
		s.fileMode = mode
	}
}

// WithLogger sets the logger for the sink's own debug records (default
// slog.Default at construction). A sink that backs that same logger must be
// given a logger that does not write to it.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Sink from cfg.
func New(cfg Config, opts ...Option) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache, err := lru.New[int64, string](pathCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create path cache: %w", err)
	}

	s := &Sink{
		cfg:      cfg,
		expander: expand.Func(func(t string) (string, error) { return t, nil }),
		clock:    time.Now,
		location: time.Local,
		fileMode: 0o644,
		dirMode:  0o755,
		paths:    cache,
		state:    StateConfigured,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromMap creates a Sink from a configuration mapping (see ConfigFromMap).
func NewFromMap(m map[string]any, opts ...Option) (*Sink, error) {
	cfg, err := ConfigFromMap(m)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Config returns a copy of the current configuration.
func (s *Sink) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// FilenameTemplate returns the unformatted filename template.
func (s *Sink) FilenameTemplate() string {
	return s.Config().FilenameTemplate
}

// Directory returns the unexpanded directory template.
func (s *Sink) Directory() string {
	return s.Config().Directory
}

// Granularity returns the rotation window in seconds.
func (s *Sink) Granularity() int64 {
	return s.Config().Granularity
}

// State returns the lifecycle state.
func (s *Sink) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetFilenameTemplate replaces the filename template and invalidates the
// cached path.
func (s *Sink) SetFilenameTemplate(template string) error {
	if template == "" {
		return errors.InvalidConfiguration("filename template must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.FilenameTemplate = template
	s.invalidateLocked()
	return nil
}

// SetDirectory replaces the directory template and invalidates the cached
// path.
func (s *Sink) SetDirectory(template string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Directory = template
	s.invalidateLocked()
}

// SetGranularity replaces the rotation window and invalidates the cached
// path. Negative values are rejected and leave the sink unchanged.
func (s *Sink) SetGranularity(seconds int64) error {
	if seconds < 0 {
		return errors.InvalidConfiguration("granularity must be greater than or equal to 0").
			WithDetail("granularity", fmt.Sprint(seconds))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Granularity = seconds
	s.invalidateLocked()
	return nil
}

// Invalidate drops the cached path without changing the configuration.
func (s *Sink) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
}

func (s *Sink) invalidateLocked() {
	if s.paths != nil {
		s.paths.Purge()
	}
	if s.state == StatePathResolved {
		s.state = StateConfigured
	}
}

// Path resolves the file path for the sink clock's current time.
func (s *Sink) Path() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(s.clock())
}

// ResolvePath returns the file path a message logged at now belongs to.
// The result is cached per bucket until a setter invalidates it.
func (s *Sink) ResolvePath(now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(now)
}

func (s *Sink) resolveLocked(now time.Time) (string, error) {
	if s.state == StateUnconfigured {
		return "", errors.InvalidConfiguration("sink is not configured; use filesink.New")
	}

	bucket := Bucket(now.In(s.location), s.cfg.Granularity)
	key := bucket.Unix()
	if path, ok := s.paths.Get(key); ok {
		return path, nil
	}

	dir, err := s.expander.Expand(s.cfg.Directory)
	if err != nil {
		return "", errors.PathResolutionFailure("cannot expand log directory", err).
			WithDetail("directory", s.cfg.Directory)
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.PathResolutionFailure("log directory resolved to an empty path", nil).
			WithDetail("directory", s.cfg.Directory)
	}
	if !strings.HasSuffix(dir, "/") && !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += "/"
	}

	name := strftime.Format(s.cfg.FilenameTemplate, bucket)
	if name == "" {
		return "", errors.PathResolutionFailure("filename template produced an empty name", nil).
			WithDetail("template", s.cfg.FilenameTemplate)
	}

	path := dir + name
	s.paths.Add(key, path)
	s.state = StatePathResolved

	s.log.Debug("log path resolved",
		slog.String("path", path),
		slog.Time("bucket", bucket),
		slog.Int64("granularity", s.cfg.Granularity))

	return path, nil
}

// Write appends message to the current file.
//
// When the file does not exist yet it is created and FileCreated listeners
// run before the message is written. After a successful append the
// MessageWritten listeners run. A listener error aborts Write and is
// returned wrapped in a WriteFailure; when a FileCreated listener fails the
// new file is removed again.
func (s *Sink) Write(level logger.Level, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.resolveLocked(s.clock())
	if err != nil {
		return err
	}
	if message == "" {
		return errors.WriteFailure(path, stderrors.New("empty message"))
	}

	f, created, err := s.openLocked(path)
	if err != nil {
		return errors.WriteFailure(path, err)
	}
	defer func() { _ = f.Close() }()

	if created {
		if err := s.listeners.fileCreated(s, path); err != nil {
			// Remove the file so the next Write creates it and fires
			// FileCreated again.
			_ = f.Close()
			if rmErr := os.Remove(path); rmErr != nil && !stderrors.Is(rmErr, fs.ErrNotExist) {
				s.log.Warn("failed to remove log file after FileCreated error",
					slog.String("path", path),
					slog.String("error", rmErr.Error()))
			}
			return errors.WriteFailure(path, err)
		}
	}

	n, err := f.WriteString(message)
	if err != nil {
		return errors.WriteFailure(path, err)
	}
	if n == 0 {
		return errors.WriteFailure(path, stderrors.New("no bytes written"))
	}

	if err := s.listeners.messageWritten(s, level, message); err != nil {
		return errors.WriteFailure(path, err)
	}
	return nil
}

// openLocked opens path for appending, creating it and its directory when
// missing. created reports whether this call created the file.
func (s *Sink) openLocked(path string) (f *os.File, created bool, err error) {
	const appendFlags = os.O_WRONLY | os.O_APPEND

	f, err = os.OpenFile(path, appendFlags|os.O_CREATE|os.O_EXCL, s.fileMode)
	if err == nil {
		return f, true, nil
	}
	if stderrors.Is(err, fs.ErrExist) {
		f, err = os.OpenFile(path, appendFlags, s.fileMode)
		return f, false, err
	}
	if !stderrors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	if err := os.MkdirAll(dirOf(path), s.dirMode); err != nil {
		return nil, false, fmt.Errorf("create log directory: %w", err)
	}
	f, err = os.OpenFile(path, appendFlags|os.O_CREATE|os.O_EXCL, s.fileMode)
	if err == nil {
		return f, true, nil
	}
	if stderrors.Is(err, fs.ErrExist) {
		f, err = os.OpenFile(path, appendFlags, s.fileMode)
		return f, false, err
	}
	return nil, false, err
}

func dirOf(path string) string {
	i := strings.LastIndexAny(path, "/"+string(os.PathSeparator))
	if i <= 0 {
		return "."
	}
	return path[:i]
}
