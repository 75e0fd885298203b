package vaultconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"
)

// DefaultReloadInterval is how often a reloading source re-reads its
// secrets unless configured otherwise.
const DefaultReloadInterval = 300 * time.Second

// Source is a configuration overlay backed by one environment's secrets.
// Load is one-shot; afterwards the source holds a complete key/value
// snapshot that is replaced wholesale on each reload, so readers see either
// the old or the new state, never a partial merge.
type Source struct {
	client      *Client
	environment string
	logger      hclog.Logger

	sectionPrefix   string
	registeredOnly  bool
	optional        bool
	reload          bool
	reloadInterval  time.Duration
	reloadNotifiers []func()

	mu     sync.Mutex
	loaded bool
	data   map[string]string
	lower  map[string]string
	stop   chan struct{}
	once   sync.Once
}

// SourceOption customises a Source at construction time.
type SourceOption func(*Source)

// WithSectionPrefix prepends a section to every flattened key, so secrets
// land under e.g. "Secrets:Database:Password".
func WithSectionPrefix(prefix string) SourceOption {
	return func(s *Source) { s.sectionPrefix = strings.Trim(prefix, ":") }
}

// WithRegisteredEntriesOnly restricts Apply to keys the target
// configuration already knows about; secrets without a pre-existing entry
// are dropped.
func WithRegisteredEntriesOnly() SourceOption {
	return func(s *Source) { s.registeredOnly = true }
}

// WithOptionalLoad tolerates a failed load: the source degrades to an empty
// layer with a logged warning instead of failing startup.
func WithOptionalLoad() SourceOption {
	return func(s *Source) { s.optional = true }
}

// WithReload re-reads the secrets on a fixed interval after the initial
// load. A non-positive interval means DefaultReloadInterval. Reload
// failures are logged and never crash the process.
func WithReload(interval time.Duration) SourceOption {
	return func(s *Source) {
		s.reload = true
		if interval > 0 {
			s.reloadInterval = interval
		}
	}
}

// WithReloadNotify registers a callback invoked after every successful
// reload, outside the snapshot lock.
func WithReloadNotify(fn func()) SourceOption {
	return func(s *Source) {
		if fn != nil {
			s.reloadNotifiers = append(s.reloadNotifiers, fn)
		}
	}
}

// Source creates a configuration source for one environment under the
// client's mount point.
func (c *Client) Source(environment string, opts ...SourceOption) (*Source, error) {
	if strings.TrimSpace(environment) == "" {
		return nil, fmt.Errorf("%w: environment must not be empty", ErrInvalidArgument)
	}

	s := &Source{
		client:         c,
		environment:    environment,
		logger:         c.logger,
		reloadInterval: DefaultReloadInterval,
		stop:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load performs the one-shot transition from unloaded to loaded: read the
// environment's secrets, flatten them and install the snapshot. Calling
// Load twice is an error. With the optional flag set, a failed read leaves
// an empty snapshot behind a logged warning.
func (s *Source) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return errors.New("vault configuration source is already loaded")
	}

	if err := s.refreshLocked(ctx); err != nil {
		if !s.optional {
			return err
		}
		s.logger.Warn("optional vault configuration source failed to load, continuing with an empty layer",
			"environment", s.environment, "error", err)
		s.installLocked(map[string]string{})
	}
	s.loaded = true

	if s.reload {
		go s.reloadLoop()
	}
	return nil
}

// refreshLocked reads and flattens the secrets, then swaps the snapshot.
// Callers must hold s.mu.
func (s *Source) refreshLocked(ctx context.Context) error {
	secrets, err := s.client.GetSecrets(ctx, s.environment)
	if err != nil {
		return err
	}

	flat := Flatten(secrets)
	if s.sectionPrefix != "" {
		prefixed := make(map[string]string, len(flat))
		for key, value := range flat {
			prefixed[s.sectionPrefix+":"+key] = value
		}
		flat = prefixed
	}

	s.installLocked(flat)
	return nil
}

func (s *Source) installLocked(flat map[string]string) {
	lower := make(map[string]string, len(flat))
	for key, value := range flat {
		lower[strings.ToLower(key)] = value
	}
	s.data = flat
	s.lower = lower
}

// Get looks up one flattened key, case-insensitively. The second return
// reports presence.
func (s *Source) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.lower[strings.ToLower(key)]
	return value, ok
}

// Keys returns the flattened key set of the current snapshot.
func (s *Source) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	return keys
}

// Apply merges the snapshot into the target configuration. Values are set
// with override precedence, so secret-derived keys win over every earlier
// source. With WithRegisteredEntriesOnly, keys unknown to the target are
// skipped.
func (s *Source) Apply(v *viper.Viper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range s.data {
		if s.registeredOnly && !v.IsSet(key) {
			continue
		}
		v.Set(key, value)
	}
}

// Close stops the reload timer, if any. It is safe to call on a source
// that never reloads.
func (s *Source) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Source) reloadLoop() {
	ticker := time.NewTicker(s.reloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.reloadOnce()
		}
	}
}

// reloadOnce refreshes the snapshot from the store. A load already in
// progress skips the tick rather than piling up; failures are logged.
func (s *Source) reloadOnce() {
	if !s.mu.TryLock() {
		s.logger.Debug("skipping vault reload tick, a load is already in progress", "environment", s.environment)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.reloadInterval)
	err := s.refreshLocked(ctx)
	cancel()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("vault configuration reload failed, keeping previous snapshot",
			"environment", s.environment, "error", err)
		return
	}

	s.logger.Debug("vault configuration reloaded", "environment", s.environment)
	for _, notify := range s.reloadNotifiers {
		notify()
	}
}
