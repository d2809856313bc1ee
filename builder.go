package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bricola/authcore/internal"
	"github.com/bricola/authcore/internal/flows"
	"github.com/bricola/authcore/jwt"
	"github.com/bricola/authcore/notify"
	"github.com/bricola/authcore/password"
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config   Config
	store    UserStore
	notifier notify.Notifier

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	b.config.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	b.config.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return b
}

// WithUserStore sets the account store. It is required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

// WithNotifier sets the mail transport. Without one, mail is discarded.
func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	b.notifier = n
	return b
}

// Build validates the configuration and returns a ready Engine. The Engine
// owns a delivery goroutine; release it with Engine.Close.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("user store required")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewBcrypt(password.Config{Cost: cfg.Password.SaltRounds})
	if err != nil {
		return nil, err
	}

	tokens, err := jwt.NewService(jwt.Config{
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshSecret: cloneBytes(cfg.JWT.RefreshSecret),
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// Unknown emails are checked against this digest during login.
	dummyDigest, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}

	e := &Engine{
		config:    cfg,
		store:     b.store,
		hasher:    hasher,
		tokens:    tokens,
		templates: notify.NewTemplates(cfg.Notifier.Brand),
		metrics:   NewMetrics(cfg.Metrics),
	}
	e.dispatcher = notify.NewDispatcher(notify.DispatcherConfig{
		BufferSize:  cfg.Notifier.QueueSize,
		DropIfFull:  cfg.Notifier.DropIfFull,
		SendTimeout: cfg.Notifier.SendTimeout,
	}, b.notifier)
	e.flows = e.newFlowDeps(dummyDigest)

	b.built = true
	log.Infof("Engine ready: access ttl %v, refresh ttl %v, bcrypt cost %d",
		cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, cfg.Password.SaltRounds)

	return e, nil
}

func (e *Engine) newFlowDeps(dummyDigest string) flows.Deps {
	return flows.Deps{
		Store:          e.store,
		HashPassword:   e.hasher.Hash,
		VerifyPassword: e.hasher.Verify,
		NeedsRehash:    e.hasher.NeedsRehash,
		CheckPolicy:    password.ValidatePolicy,
		DummyDigest:    dummyDigest,

		IssuePair:     e.tokens.IssuePair,
		VerifyAccess:  e.tokens.VerifyAccess,
		VerifyRefresh: e.tokens.VerifyRefresh,
		RefreshDigest: internal.RefreshDigest,
		SecureEqual:   internal.SecureEqual,

		NewVerifyCode: internal.NewVerifyCode,
		NewID:         uuid.NewString,
		Now:           time.Now,
		ResetTTL:      e.config.PasswordReset.TokenTTL,

		Mail: flows.Mail{
			Verification: func(ctx context.Context, to, code string) {
				e.queue(ctx, func() (notify.Message, error) { return e.templates.VerifyEmail(to, code) })
			},
			PasswordReset: func(ctx context.Context, to, code string, validity time.Duration) {
				e.queue(ctx, func() (notify.Message, error) {
					return e.templates.ResetPassword(to, code, humanDuration(validity))
				})
			},
			EmailChange: func(ctx context.Context, to, code string) {
				e.queue(ctx, func() (notify.Message, error) { return e.templates.EmailChange(to, code) })
			},
			AccountStatus: func(ctx context.Context, to string, active bool, motive string) {
				e.queue(ctx, func() (notify.Message, error) { return e.templates.AccountStatus(to, active, motive) })
			},
		},
		Inc: func(id int) { e.metrics.Inc(MetricID(id)) },
		Observe: func(id int, d time.Duration) {
			e.metrics.Observe(MetricID(id), d)
		},
		Warn: log.Warnf,

		Errors: flows.Errors{
			EngineNotReady:       ErrEngineNotReady,
			WeakPassword:         ErrWeakPassword,
			EmailAlreadyExists:   ErrEmailAlreadyExists,
			EmailAlreadyVerified: ErrEmailAlreadyVerified,
			EmailNotVerified:     ErrEmailNotVerified,
			InvalidCredentials:   ErrInvalidCredentials,
			InvalidToken:         ErrInvalidToken,
			TokenExpired:         ErrTokenExpired,
			UserNotActive:        ErrUserNotActive,
			NotFound:             ErrNotFound,
			Internal:             internalError,
		},
		Metrics: flows.Metrics{
			RegisterSuccess:            int(MetricRegisterSuccess),
			RegisterFailure:            int(MetricRegisterFailure),
			EmailVerificationSuccess:   int(MetricEmailVerificationSuccess),
			EmailVerificationFailure:   int(MetricEmailVerificationFailure),
			EmailChangeRequest:         int(MetricEmailChangeRequest),
			EmailChangeSuccess:         int(MetricEmailChangeSuccess),
			VerificationResend:         int(MetricVerificationResend),
			LoginSuccess:               int(MetricLoginSuccess),
			LoginFailure:               int(MetricLoginFailure),
			RefreshSuccess:             int(MetricRefreshSuccess),
			RefreshFailure:             int(MetricRefreshFailure),
			RefreshReuseDetected:       int(MetricRefreshReuseDetected),
			PasswordResetRequest:       int(MetricPasswordResetRequest),
			PasswordResetConfirmOK:     int(MetricPasswordResetConfirmSuccess),
			PasswordResetConfirmFailed: int(MetricPasswordResetConfirmFailure),
			Logout:                     int(MetricLogout),
			AccountActivated:           int(MetricAccountActivated),
			AccountDeactivated:         int(MetricAccountDeactivated),
			LoginLatency:               int(MetricLoginLatency),
		},
	}
}

// queue renders a message and hands it to the dispatcher. Failures are
// logged and never reach the caller.
func (e *Engine) queue(ctx context.Context, render func() (notify.Message, error)) {
	msg, err := render()
	if err != nil {
		log.Errorf("Render mail: %v", err)
		return
	}
	e.dispatcher.Dispatch(ctx, msg)
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
