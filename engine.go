package authcore

import (
	"context"
	"time"

	"github.com/bricola/authcore/internal/flows"
	"github.com/bricola/authcore/jwt"
	"github.com/bricola/authcore/notify"
	"github.com/bricola/authcore/password"
)

// Engine runs the account lifecycle operations. Build it with New.
type Engine struct {
	config     Config
	store      UserStore
	hasher     *password.Bcrypt
	tokens     *jwt.Service
	templates  *notify.Templates
	dispatcher *notify.Dispatcher
	metrics    *Metrics
	flows      flows.Deps
}

// Close drains the mail queue and stops its delivery goroutine.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.dispatcher.Close()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// NotifierStats reports mail queue delivery counters.
func (e *Engine) NotifierStats() (sent, failed, dropped uint64) {
	if e == nil {
		return 0, 0, 0
	}
	return e.dispatcher.Stats()
}

// RefreshTTL is the lifetime of issued refresh tokens. HTTP adapters use it
// for the refresh cookie Max-Age.
func (e *Engine) RefreshTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.JWT.RefreshTTL
}

// Authenticate verifies an access token and loads the account it names. The
// account must exist and be active.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	out, err := flows.RunAuthenticate(ctx, accessToken, e.flows)
	if err != nil {
		return nil, err
	}
	return &Principal{Account: out.Account, Claims: out.Claims}, nil
}

func (e *Engine) deps() (flows.Deps, error) {
	if e == nil || e.store == nil {
		return flows.Deps{}, ErrEngineNotReady
	}
	return e.flows, nil
}

func toResult(out flows.Outcome) *Result {
	return &Result{
		Message: out.Message,
		Tokens:  out.Tokens,
		Account: out.Account,
	}
}

func logFailure(ctx context.Context, op, subject string, err error) {
	if KindOf(err) == KindInternal {
		log.Errorf("%v %v from %v: %v", op, subject, clientIPFromContext(ctx), err)
		return
	}
	log.Debugf("%v %v from %v: %v", op, subject, clientIPFromContext(ctx), err)
}
