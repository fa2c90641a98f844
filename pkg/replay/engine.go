package replay

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/getmockd/httpreplay/internal/matching"
	"github.com/getmockd/httpreplay/pkg/config"
	"github.com/getmockd/httpreplay/pkg/fingerprint"
	"github.com/getmockd/httpreplay/pkg/logging"
	"github.com/getmockd/httpreplay/pkg/matcher"
	"github.com/getmockd/httpreplay/pkg/recording"
	"github.com/getmockd/httpreplay/pkg/store"
	"github.com/getmockd/httpreplay/pkg/store/file"
)

var errNegativeExpiry = errors.New("expire after must not be negative")

// Engine records real responses and replays them. Use one engine per test.
//
// The engine loads its stored records on the first intercepted request.
// Options must therefore be given to New; there is no way to change them
// afterwards.
type Engine struct {
	store  store.Store
	layout store.Layout
	log    *slog.Logger
	now    func() time.Time
	policy fingerprint.Policy

	scope        string
	only         []string
	fakes        []fake
	readFrom     []string
	writeTo      string
	fresh        bool
	freshPattern string
	expireDays   *int
	bail         bool

	err error

	mu          sync.Mutex
	initialized bool
	initErr     error
	loadDirs    []string
	saveDir     string
	queues      map[string][]*recording.Record
	used        map[string]struct{}
	pending     map[string]int
	recorded    []string
}

type fake struct {
	pattern string
	respond Responder
}

// New creates an engine from cfg and opts.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		layout:     store.Layout{Root: cfg.StorageRoot(".")},
		log:        logging.Nop(),
		now:        time.Now,
		policy:     policy,
		fresh:      cfg.Fresh,
		expireDays: cfg.ExpireAfter,
		bail:       cfg.Bail,
		queues:     make(map[string][]*recording.Record),
		used:       make(map[string]struct{}),
		pending:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.err != nil {
		return nil, e.err
	}
	if err := e.policy.Validate(); err != nil {
		return nil, err
	}
	if e.store == nil {
		e.store = file.New(file.WithLogger(e.log))
	}
	return e, nil
}

// setError records the first option error.
func (e *Engine) setError(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Intercept is called before a request goes to the network. It returns a
// stored or fake response, or (nil, nil) to let the real call proceed.
func (e *Engine) Intercept(req *http.Request) (*http.Response, error) {
	resp, respond, err := e.intercept(req)
	if err != nil || respond == nil {
		return resp, err
	}
	return respond(req), nil
}

func (e *Engine) intercept(req *http.Request) (*http.Response, Responder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initLocked(); err != nil {
		return nil, nil, err
	}

	rawURL := req.URL.String()
	if !e.replays(rawURL) {
		for _, f := range e.fakes {
			if matching.MatchURL(f.pattern, rawURL) {
				e.log.Debug("serving fake", "pattern", f.pattern, "url", rawURL)
				return nil, f.respond, nil
			}
		}
		return nil, nil, nil
	}

	r, err := matcher.FromHTTP(req)
	if err != nil {
		return nil, nil, err
	}
	specs := e.policy.For(r)
	name, err := fingerprint.Resolve(specs, r)
	if err != nil {
		return nil, nil, err
	}

	base := fingerprint.Base(name)
	if queue := e.queues[base]; len(queue) > 0 {
		rec := queue[0]
		e.queues[base] = queue[1:]
		e.log.Debug("replaying stored response", "name", base, "remaining", len(queue)-1)
		resp, err := rec.ToResponse(req)
		if err != nil {
			return nil, nil, fmt.Errorf("replaying %s: %w", base, err)
		}
		return resp, nil, nil
	}

	key := fingerprint.RecordingKey(specs, r)
	e.pending[key]++
	e.log.Debug("no stored response, recording", "name", name, "key", key)
	return nil, nil, nil
}

// Observe is called with every real response. Responses to requests that
// Intercept let through are written to the store; anything else is ignored.
//
// The response body is read without holding the engine lock, so a slow
// upstream does not hold up other requests of the same test.
func (e *Engine) Observe(req *http.Request, resp *http.Response) error {
	if !e.observes(req.URL.String()) {
		return nil
	}

	r, err := matcher.FromHTTP(req)
	if err != nil {
		return err
	}
	specs := e.policy.For(r)
	name, err := fingerprint.Resolve(specs, r)
	if err != nil {
		return err
	}

	dir, name, ok, err := e.claim(fingerprint.RecordingKey(specs, r), name)
	if !ok || err != nil {
		return err
	}

	rec, err := recording.Capture(r, resp, e.now())
	if err != nil {
		return err
	}
	if err := e.store.Save(dir, name, rec); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	e.mu.Lock()
	e.recorded = append(e.recorded, path)
	e.mu.Unlock()
	e.log.Info("recorded response", "path", path, "status", rec.Status)
	return nil
}

// observes reports whether responses for rawURL may need recording.
func (e *Engine) observes(rawURL string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized && e.initErr == nil && e.replays(rawURL)
}

// claim settles one pending call for key and reserves a unique file name for
// its response. ok is false when no call was pending.
func (e *Engine) claim(key, name string) (dir, unique string, ok bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending[key] <= 0 {
		return "", "", false, nil
	}
	e.pending[key]--
	if e.pending[key] == 0 {
		delete(e.pending, key)
	}

	if e.bail {
		return "", "", false, &BailError{Dir: e.saveDir, Name: name}
	}

	unique = fingerprint.MakeUnique(name, e.used)
	e.used[unique] = struct{}{}
	return e.saveDir, unique, true, nil
}

// replays reports whether rawURL is subject to record and replay.
func (e *Engine) replays(rawURL string) bool {
	if e.only == nil {
		return true
	}
	return matching.FirstMatch(e.only, rawURL) >= 0
}

// initLocked resolves directories, applies fresh mode and loads every stored
// record. It runs once; a failure is returned on every later call.
func (e *Engine) initLocked() error {
	if e.initialized {
		return e.initErr
	}
	e.initialized = true
	e.initErr = e.initialize()
	return e.initErr
}

func (e *Engine) initialize() error {
	e.resolveDirs()

	if e.fresh {
		if err := e.deleteStored(); err != nil {
			return err
		}
	}
	return e.loadStored()
}

func (e *Engine) resolveDirs() {
	if len(e.readFrom) > 0 {
		e.loadDirs = make([]string, len(e.readFrom))
		for i, name := range e.readFrom {
			e.loadDirs[i] = e.layout.Shared(name)
		}
	} else {
		e.loadDirs = []string{e.layout.Private(e.scope)}
	}

	if e.writeTo != "" {
		e.saveDir = e.layout.Shared(e.writeTo)
	} else {
		e.saveDir = e.layout.Private(e.scope)
	}
}

func (e *Engine) deleteStored() error {
	for _, dir := range e.loadDirs {
		if e.freshPattern != "" {
			n, err := e.store.DeleteMatching(dir, e.freshPattern)
			if err != nil {
				return fmt.Errorf("fresh: %w", err)
			}
			e.log.Info("fresh: deleted matching records", "dir", dir, "pattern", e.freshPattern, "count", n)
			continue
		}

		removed, err := e.store.DeleteDir(dir)
		if err != nil {
			return fmt.Errorf("fresh: %w", err)
		}
		if removed {
			e.log.Info("fresh: deleted records", "dir", dir)
		} else {
			e.log.Info("fresh: nothing stored yet", "dir", dir)
		}
	}
	return nil
}

// loadStored fills the response queues. Expired records are skipped before
// precedence is decided, so an expired record never shadows a later directory.
func (e *Engine) loadStored() error {
	owner := make(map[string]string)
	now := e.now()

	for _, dir := range e.loadDirs {
		entries, err := e.store.Load(dir)
		if err != nil {
			return fmt.Errorf("loading %s: %w", dir, err)
		}

		for _, entry := range entries {
			if e.expireDays != nil && store.IsExpired(entry.Record, *e.expireDays, now) {
				e.log.Debug("skipping expired record", "dir", dir, "name", entry.Name)
				continue
			}

			base := fingerprint.Base(entry.Name)
			if d, seen := owner[base]; seen && d != dir {
				continue
			}
			owner[base] = dir
			e.queues[base] = append(e.queues[base], entry.Record)
		}
	}

	e.log.Debug("loaded stored responses", "dirs", e.loadDirs, "fingerprints", len(e.queues))
	return nil
}

// Recorded returns the paths written during this engine's lifetime, in order.
func (e *Engine) Recorded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.recorded...)
}

// Pending returns the number of real calls still awaiting their response.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, c := range e.pending {
		n += c
	}
	return n
}

// Dirs returns the directories read from and written to. It is only
// meaningful after the first intercepted request.
func (e *Engine) Dirs() (read []string, write string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.loadDirs...), e.saveDir
}
