// Package dispatcher serializes client requests to the auth service.
//
// A single slot holds the request being executed; further requests wait in a
// FIFO with at most one entry per kind. A background loop promotes the queue
// front whenever the slot is idle, runs the request, routes the result to the
// response handler and schedules a heartbeat after a quiet period.
package dispatcher

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/account/http/dto"
	"github.com/allisson/credentials/internal/client"
	cryptoDomain "github.com/allisson/credentials/internal/crypto/domain"
	cryptoService "github.com/allisson/credentials/internal/crypto/service"
	"github.com/allisson/credentials/internal/metrics"
)

// Defaults of the dispatch loop.
const (
	DefaultPollInterval      = 20 * time.Millisecond
	DefaultHeartbeatInterval = 20 * time.Second
)

const metricsDomain = "dispatcher"

// API is the transport used by the dispatcher. *client.Client implements it.
type API interface {
	GetKey(ctx context.Context) (*dto.KeyAnnouncement, error)
	Heartbeat(ctx context.Context) error
	CreateUser(ctx context.Context, req *dto.RegistrationRequest) (*dto.GenericReply, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.ProfileResponse, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithNotifier sets where user-facing messages go. Defaults to the logger.
func WithNotifier(notifier Notifier) Option {
	return func(d *Dispatcher) {
		d.notifier = notifier
	}
}

// WithMetrics records one operation per network call.
func WithMetrics(m metrics.BusinessMetrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithPollInterval sets the delay between loop cycles.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		d.pollInterval = interval
	}
}

// WithHeartbeatInterval sets how long the slot stays idle before a heartbeat
// is scheduled.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		d.heartbeatInterval = interval
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// Dispatcher owns the client request state: the current slot, the pending
// FIFO, attached payloads, the cached server key and the logged-in user.
type Dispatcher struct {
	api         API
	keyExchange cryptoService.KeyExchange
	clientKey   *cryptoDomain.KeyPair

	logger            *slog.Logger
	notifier          Notifier
	metrics           metrics.BusinessMetrics
	pollInterval      time.Duration
	heartbeatInterval time.Duration
	now               func() time.Time
	errorLog          rate.Sometimes

	mu           sync.Mutex
	current      accountDomain.RequestKind
	queue        *list.List
	queued       map[accountDomain.RequestKind]*list.Element
	lastAttempt  time.Time
	registration *Registration
	login        *LoginAttempt
	serverKey    string
	user         *User
	connected    bool

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle dispatcher. clientKey is the key pair profiles are
// sealed to on login.
func New(
	api API,
	keyExchange cryptoService.KeyExchange,
	clientKey *cryptoDomain.KeyPair,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		api:               api,
		keyExchange:       keyExchange,
		clientKey:         clientKey,
		logger:            slog.Default(),
		metrics:           metrics.NewNoOpBusinessMetrics(),
		pollInterval:      DefaultPollInterval,
		heartbeatInterval: DefaultHeartbeatInterval,
		now:               time.Now,
		errorLog:          rate.Sometimes{First: 3, Interval: 10 * time.Second},
		current:           accountDomain.Idle,
		queue:             list.New(),
		queued:            make(map[accountDomain.RequestKind]*list.Element),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifier == nil {
		d.notifier = NotifierFunc(func(message string) {
			d.logger.Info(message)
		})
	}
	d.lastAttempt = d.now()
	return d
}

// SetRequest asks for kind. An idle slot takes it at once, otherwise it waits
// in the FIFO unless already pending. CreateUser and Login are rejected with
// ErrRequestNeedsPayload; use AttachRegistration and AttachLogin instead.
func (d *Dispatcher) SetRequest(kind accountDomain.RequestKind) error {
	if kind.RequiresPayload() {
		d.logger.Warn("request needs payload", slog.String("kind", kind.String()))
		return fmt.Errorf("%w: %s", ErrRequestNeedsPayload, kind)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.setRequestLocked(kind)
	return nil
}

// Attach routes payload to AttachRegistration or AttachLogin.
func (d *Dispatcher) Attach(payload Payload) {
	switch p := payload.(type) {
	case *Registration:
		d.AttachRegistration(p)
	case *LoginAttempt:
		d.AttachLogin(p)
	}
}

// AttachRegistration stores a registration and queues CreateUser once. A nil
// registration clears the payload and withdraws a pending CreateUser.
func (d *Dispatcher) AttachRegistration(registration *Registration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.registration = registration
	d.attachLocked(accountDomain.CreateUser, registration != nil)
}

// AttachLogin stores a login attempt and queues Login once. A nil attempt
// clears the payload and withdraws a pending Login.
func (d *Dispatcher) AttachLogin(attempt *LoginAttempt) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.login = attempt
	d.attachLocked(accountDomain.Login, attempt != nil)
}

// Current returns the kind in the slot.
func (d *Dispatcher) Current() accountDomain.RequestKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Pending returns the queued kinds, front first.
func (d *Dispatcher) Pending() []accountDomain.RequestKind {
	d.mu.Lock()
	defer d.mu.Unlock()

	kinds := make([]accountDomain.RequestKind, 0, d.queue.Len())
	for e := d.queue.Front(); e != nil; e = e.Next() {
		kinds = append(kinds, e.Value.(accountDomain.RequestKind))
	}
	return kinds
}

// ServerKey returns the cached server public key, or "" before key exchange.
func (d *Dispatcher) ServerKey() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.serverKey
}

// CurrentUser returns the last logged-in user, or nil.
func (d *Dispatcher) CurrentUser() *User {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.user == nil {
		return nil
	}
	user := *d.user
	return &user
}

// Connected reports whether the last call reached the server.
func (d *Dispatcher) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// Start runs the loop in a goroutine until Stop or ctx cancellation.
func (d *Dispatcher) Start(ctx context.Context) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	if d.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		d.Run(ctx)
	}(d.done)
}

// Stop cancels the loop started by Start and waits for it to return.
func (d *Dispatcher) Stop() {
	d.runMu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run executes cycles until ctx is done. A failing or panicking cycle is
// logged and the loop carries on.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Debug("dispatcher started",
		slog.Duration("poll_interval", d.pollInterval),
		slog.Duration("heartbeat_interval", d.heartbeatInterval),
	)

	timer := time.NewTimer(d.pollInterval)
	defer timer.Stop()

	for {
		if err := d.runCycle(ctx); err != nil && ctx.Err() == nil {
			d.errorLog.Do(func() {
				d.logger.Warn("dispatch cycle failed", slog.Any("error", err))
			})
		}

		select {
		case <-ctx.Done():
			d.logger.Debug("dispatcher stopped")
			return
		case <-timer.C:
			timer.Reset(d.pollInterval)
		}
	}
}

func (d *Dispatcher) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.reset()
			err = fmt.Errorf("dispatch cycle panicked: %v", r)
		}
	}()
	defer d.scheduleHeartbeat()

	kind := d.promote()
	if kind == accountDomain.Idle {
		return nil
	}

	resp, err := d.dispatch(ctx, kind)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	if resp == nil {
		return nil
	}
	if err := d.handle(resp); err != nil {
		return fmt.Errorf("%s response: %w", kind, err)
	}
	return nil
}

// promote moves the queue front into an idle slot and returns the slot.
func (d *Dispatcher) promote() accountDomain.RequestKind {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == accountDomain.Idle {
		if front := d.queue.Front(); front != nil {
			kind := front.Value.(accountDomain.RequestKind)
			d.queue.Remove(front)
			delete(d.queued, kind)
			d.setRequestLocked(kind)
		}
	}
	return d.current
}

func (d *Dispatcher) scheduleHeartbeat() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != accountDomain.Idle {
		return
	}
	if _, pending := d.queued[accountDomain.Heartbeat]; pending {
		return
	}
	if d.now().Sub(d.lastAttempt) >= d.heartbeatInterval {
		d.setRequestLocked(accountDomain.Heartbeat)
	}
}

func (d *Dispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = accountDomain.Idle
}

func (d *Dispatcher) setRequestLocked(kind accountDomain.RequestKind) {
	if kind == d.current {
		return
	}
	if kind != accountDomain.Idle {
		d.lastAttempt = d.now()
	}
	if d.current == accountDomain.Idle || kind == accountDomain.Idle {
		d.current = kind
		return
	}
	d.enqueueLocked(kind)
}

func (d *Dispatcher) attachLocked(kind accountDomain.RequestKind, present bool) {
	if !present {
		if e, ok := d.queued[kind]; ok {
			d.queue.Remove(e)
			delete(d.queued, kind)
		}
		return
	}
	d.enqueueLocked(kind)
}

func (d *Dispatcher) enqueueLocked(kind accountDomain.RequestKind) {
	if _, ok := d.queued[kind]; ok {
		return
	}
	d.queued[kind] = d.queue.PushBack(kind)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind accountDomain.RequestKind) (Response, error) {
	d.reset()

	switch kind {
	case accountDomain.GetKey:
		return d.getKey(ctx)
	case accountDomain.Heartbeat:
		return nil, d.heartbeat(ctx)
	case accountDomain.CreateUser:
		return d.createUser(ctx)
	case accountDomain.Login:
		return d.loginUser(ctx)
	default:
		return nil, fmt.Errorf("unknown request kind %d", kind)
	}
}

func (d *Dispatcher) getKey(ctx context.Context) (Response, error) {
	start := d.now()
	announcement, err := d.api.GetKey(ctx)
	metrics.Observe(ctx, d.metrics, metricsDomain, "get_key", start, err)
	d.trackConnection(err)
	if err != nil {
		if errors.Is(err, client.ErrTransportUnavailable) {
			d.notifier.Notify(MessageNoConnection)
		}
		return nil, err
	}
	return KeyResponse{Key: announcement.Key}, nil
}

func (d *Dispatcher) heartbeat(ctx context.Context) error {
	start := d.now()
	err := d.api.Heartbeat(ctx)
	metrics.Observe(ctx, d.metrics, metricsDomain, "heartbeat", start, err)
	d.trackConnection(err)
	return nil
}

func (d *Dispatcher) createUser(ctx context.Context) (Response, error) {
	d.mu.Lock()
	registration := d.registration
	d.registration = nil
	serverKey := d.serverKey
	d.mu.Unlock()

	if registration == nil {
		d.notifier.Notify(MessageNoCredentials)
		return nil, ErrMissingPayload
	}
	if serverKey == "" {
		d.notifier.Notify(MessageNoServerKey)
		return nil, ErrNoServerKey
	}

	req := &dto.RegistrationRequest{}
	if err := d.seal(serverKey,
		sealField{registration.Name, &req.Name},
		sealField{registration.Email, &req.Email},
		sealField{registration.Password, &req.Password},
	); err != nil {
		return nil, err
	}

	start := d.now()
	reply, err := d.api.CreateUser(ctx, req)
	metrics.Observe(ctx, d.metrics, metricsDomain, "user_create", start, err)
	d.trackConnection(err)
	if err != nil {
		return replyForError(err)
	}
	return ReplyResponse{Message: reply.Message}, nil
}

func (d *Dispatcher) loginUser(ctx context.Context) (Response, error) {
	d.mu.Lock()
	attempt := d.login
	d.login = nil
	serverKey := d.serverKey
	d.mu.Unlock()

	if attempt == nil {
		d.notifier.Notify(MessageNoLoginCredentials)
		return nil, ErrMissingPayload
	}
	if serverKey == "" {
		d.notifier.Notify(MessageNoServerKey)
		return nil, ErrNoServerKey
	}

	req := &dto.LoginRequest{PublicKey: d.clientKey.PublicKeyText}
	if err := d.seal(serverKey,
		sealField{attempt.Email, &req.Email},
		sealField{attempt.Password, &req.Password},
	); err != nil {
		return nil, err
	}

	start := d.now()
	profile, err := d.api.Login(ctx, req)
	metrics.Observe(ctx, d.metrics, metricsDomain, "login", start, err)
	d.trackConnection(err)
	if err != nil {
		return replyForError(err)
	}
	return ProfileResponse{Name: profile.Name, Email: profile.Email}, nil
}

type sealField struct {
	plaintext string
	target    *string
}

func (d *Dispatcher) seal(serverKey string, fields ...sealField) error {
	for _, f := range fields {
		ciphertext, err := d.keyExchange.Encrypt(f.plaintext, serverKey)
		if err != nil {
			d.notifier.Notify(MessageEncryptFailed)
			return err
		}
		*f.target = ciphertext
	}
	return nil
}

// replyForError turns a server rejection into a ReplyResponse so the user sees
// the server's message.
func replyForError(err error) (Response, error) {
	if errors.Is(err, client.ErrTransportUnavailable) {
		return ReplyResponse{Message: MessageNoConnection}, nil
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return ReplyResponse{Message: apiErr.Message}, nil
	}
	return nil, err
}

func (d *Dispatcher) trackConnection(err error) {
	connected := err == nil || !errors.Is(err, client.ErrTransportUnavailable)

	d.mu.Lock()
	changed := d.connected != connected
	d.connected = connected
	d.mu.Unlock()

	if !changed {
		return
	}
	if connected {
		d.logger.Info("connected to server")
	} else {
		d.logger.Warn("lost connection to server", slog.Any("error", err))
	}
}

func (d *Dispatcher) handle(resp Response) error {
	switch r := resp.(type) {
	case KeyResponse:
		if strings.TrimSpace(r.Key) == "" {
			return errors.New("server announced an empty key")
		}
		if _, err := cryptoDomain.ParsePublicKey(r.Key); err != nil {
			return err
		}
		d.mu.Lock()
		d.serverKey = r.Key
		d.mu.Unlock()
		d.notifier.Notify(MessageServerKey)

	case ReplyResponse:
		d.notifier.Notify(r.Message)

	case ProfileResponse:
		name, err := d.keyExchange.Decrypt(r.Name, d.clientKey)
		if err != nil {
			return err
		}
		email, err := d.keyExchange.Decrypt(r.Email, d.clientKey)
		if err != nil {
			return err
		}

		user := &User{Name: name, Email: email, LoggedInAt: d.now().UTC()}
		d.mu.Lock()
		d.user = user
		d.mu.Unlock()
		d.notifier.Notify(LoginBanner(user))

	default:
		return fmt.Errorf("unhandled response %T", resp)
	}
	return nil
}

// LoginBanner renders the greeting shown after a successful login.
func LoginBanner(user *User) string {
	return fmt.Sprintf("User: %s\nWith email: %s\nLogged in at %s - Universal Time",
		user.Name, user.Email, user.LoggedInAt.UTC().Format(time.DateTime))
}
