package driver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hperssn/workplay/internal/domain"
	"github.com/hperssn/workplay/internal/storage"
)

var ErrNoSession = errors.New("no active session")

const (
	defaultTickInterval = 100 * time.Millisecond
	defaultSyncInterval = 10 * time.Second
)

// Config wires a Driver to its collaborators. Store is required; the rest
// are optional.
type Config struct {
	Store    RemoteStore
	Notifier Notifier

	// RequestPermission asks the host for notification permission. It is
	// called at most once, lazily, the first time a session becomes
	// active — whether started fresh or adopted from the store. Nil
	// means notifications stay off.
	RequestPermission func() Permission

	// OnSyncError is told about failed pushes to the store. Sync failures
	// are never fatal; local state carries on and the next coarse sync
	// retries.
	OnSyncError func(error)

	TickInterval time.Duration
	SyncInterval time.Duration

	// Now is the clock; tests substitute it.
	Now func() time.Time
}

// Driver owns the authoritative local timer state. A single mutex
// serializes the periodic tick against user actions, so a tick and a
// pause never race. All remote traffic is best-effort replication of the
// local state.
type Driver struct {
	mu sync.Mutex

	cfg      Config
	session  *domain.Session
	lastTick time.Time

	perm      Permission
	permAsked bool

	tickStop chan struct{}
	syncStop chan struct{}
}

func New(cfg Config) *Driver {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	d := &Driver{
		cfg:      cfg,
		syncStop: make(chan struct{}),
	}

	go d.syncLoop()

	return d
}

// Close stops the tick and sync loops. The remote session is left as-is.
func (d *Driver) Close() {
	d.mu.Lock()
	d.stopTickingLocked()
	d.mu.Unlock()

	close(d.syncStop)
}

// Snapshot returns a copy of the current local state. The second return
// is false when no session is active.
func (d *Driver) Snapshot() (domain.Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return domain.Session{}, false
	}
	return *d.session, true
}

// Load adopts the server's active session as local state. A missing
// session is not an error: it means the caller should offer setup.
func (d *Driver) Load(ctx context.Context) error {
	record, err := d.cfg.Store.Fetch(ctx)
	if errors.Is(err, storage.ErrNoActiveSession) {
		d.mu.Lock()
		d.session = nil
		d.stopTickingLocked()
		d.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	session := record.Session()

	d.mu.Lock()
	d.session = &session
	d.lastTick = d.cfg.Now()
	d.maybeRequestPermissionLocked()
	d.ensureTickingLocked()
	d.mu.Unlock()

	return nil
}

// Start begins a fresh session of totalHours, split evenly between work
// and play. Local state is adopted even if the create push fails; the
// returned error is then the push failure.
func (d *Driver) Start(ctx context.Context, totalHours float64) error {
	session := domain.NewSession(totalHours)
	if err := session.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	d.session = &session
	d.lastTick = d.cfg.Now()
	d.maybeRequestPermissionLocked()
	d.ensureTickingLocked()
	d.mu.Unlock()

	return d.cfg.Store.Create(ctx, session)
}

// PauseResume toggles the running flag and pushes immediately, so the
// store never lags a pause by a full coarse-sync period.
func (d *Driver) PauseResume(ctx context.Context) error {
	d.mu.Lock()
	if d.session == nil {
		d.mu.Unlock()
		return ErrNoSession
	}

	d.session.IsRunning = !d.session.IsRunning
	if d.session.IsRunning {
		d.ensureTickingLocked()
	} else {
		d.stopTickingLocked()
	}
	snapshot := *d.session
	d.mu.Unlock()

	return d.cfg.Store.Push(ctx, snapshot)
}

// Switch flips the mode unconditionally and forces the timer to run.
// Switching into an exhausted mode is allowed; the next tick switches
// back or completes.
func (d *Driver) Switch(ctx context.Context) error {
	d.mu.Lock()
	if d.session == nil {
		d.mu.Unlock()
		return ErrNoSession
	}

	d.session.CurrentMode = d.session.CurrentMode.Other()
	d.session.IsRunning = true
	d.ensureTickingLocked()
	snapshot := *d.session
	d.mu.Unlock()

	return d.cfg.Store.Push(ctx, snapshot)
}

// Reset discards local state and deletes the remote session.
func (d *Driver) Reset(ctx context.Context) error {
	d.mu.Lock()
	d.session = nil
	d.stopTickingLocked()
	d.mu.Unlock()

	return d.cfg.Store.Delete(ctx)
}

// ensureTickingLocked starts the tick loop if a running session exists
// and no loop is live. Caller holds d.mu.
func (d *Driver) ensureTickingLocked() {
	if d.tickStop != nil {
		return
	}
	if d.session == nil || !d.session.IsRunning {
		return
	}

	d.lastTick = d.cfg.Now()
	stop := make(chan struct{})
	d.tickStop = stop

	go d.tickLoop(stop)
}

// stopTickingLocked cancels the tick loop. Caller holds d.mu.
func (d *Driver) stopTickingLocked() {
	if d.tickStop != nil {
		close(d.tickStop)
		d.tickStop = nil
	}
}

func (d *Driver) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(d.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.tick()
		case <-stop:
			return
		}
	}
}

// tick converts wall-clock time since the last whole-second tick into an
// engine advance. Sub-second elapsed time leaves lastTick alone so the
// fraction keeps accumulating.
func (d *Driver) tick() {
	d.mu.Lock()

	if d.session == nil || !d.session.IsRunning {
		d.stopTickingLocked()
		d.mu.Unlock()
		return
	}

	now := d.cfg.Now()
	elapsed := int(now.Sub(d.lastTick) / time.Second)
	if elapsed < 1 {
		d.mu.Unlock()
		return
	}
	d.lastTick = now

	next, events := domain.Advance(*d.session, elapsed)
	*d.session = next
	if !next.IsRunning {
		d.stopTickingLocked()
	}
	perm := d.perm
	d.mu.Unlock()

	for _, ev := range events {
		d.notify(perm, ev)
	}
}

func (d *Driver) notify(perm Permission, ev domain.Event) {
	if perm != PermissionGranted || d.cfg.Notifier == nil {
		return
	}

	title, body := notificationText(ev)
	if err := d.cfg.Notifier.Notify(title, body); err != nil {
		d.reportError(err)
	}
}

func (d *Driver) maybeRequestPermissionLocked() {
	if d.perm != PermissionUnset || d.permAsked {
		return
	}
	d.permAsked = true

	if d.cfg.RequestPermission == nil {
		d.perm = PermissionDenied
		return
	}
	d.perm = d.cfg.RequestPermission()
}

// syncLoop replicates local state to the store on the coarse period.
// Failures are reported and otherwise ignored; local state is the source
// of truth between syncs.
func (d *Driver) syncLoop() {
	ticker := time.NewTicker(d.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.mu.Lock()
			if d.session == nil {
				d.mu.Unlock()
				continue
			}
			snapshot := *d.session
			d.mu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := d.cfg.Store.Push(ctx, snapshot); err != nil {
				d.reportError(err)
			}
			cancel()

		case <-d.syncStop:
			return
		}
	}
}

func (d *Driver) reportError(err error) {
	if d.cfg.OnSyncError != nil {
		d.cfg.OnSyncError(err)
	}
}
