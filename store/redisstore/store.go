package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bricola/authcore/account"
)

// ErrRedisUnavailable wraps every transport level failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultPrefix is the key namespace used when none is configured.
const DefaultPrefix = "acct"

const (
	createStatusEmailTaken int64 = 0
	createStatusIDTaken    int64 = 1
	createStatusCreated    int64 = 2

	updateStatusNotFound     int64 = 0
	updateStatusPrecondition int64 = 1
	updateStatusEmailTaken   int64 = 2
	updateStatusUpdated      int64 = 3
)

// KEYS[1] account hash, KEYS[2] email index.
// ARGV[1] account id, ARGV[2..] HSET pairs.
const createScript = `
if redis.call("EXISTS", KEYS[2]) == 1 then
  return 0
end
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 1
end
redis.call("SET", KEYS[2], ARGV[1])
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
return 2
`

var createLua = redis.NewScript(createScript)

// KEYS[1] account hash.
// ARGV: id, email prefix, pending prefix, new email ("" keeps it),
// pending set flag, new pending email, expect count, expect pairs,
// set count, set pairs.
const updateScript = `
local key = KEYS[1]
local id = ARGV[1]
local email_prefix = ARGV[2]
local pending_prefix = ARGV[3]
local new_email = ARGV[4]
local pending_set = ARGV[5]
local new_pending = ARGV[6]

if redis.call("EXISTS", key) == 0 then
  return {0}
end

local idx = 7
local expects = tonumber(ARGV[idx])
idx = idx + 1
for _ = 1, expects do
  local have = redis.call("HGET", key, ARGV[idx]) or ""
  if have ~= ARGV[idx + 1] then
    return {1}
  end
  idx = idx + 2
end

local old_email = redis.call("HGET", key, "email") or ""
if new_email ~= "" and new_email ~= old_email then
  local owner = redis.call("GET", email_prefix .. new_email)
  if owner and owner ~= id then
    return {2}
  end
  if old_email ~= "" then
    redis.call("DEL", email_prefix .. old_email)
  end
  redis.call("SET", email_prefix .. new_email, id)
end

if pending_set == "1" then
  local old_pending = redis.call("HGET", key, "pending_new_email") or ""
  if old_pending ~= "" and redis.call("GET", pending_prefix .. old_pending) == id then
    redis.call("DEL", pending_prefix .. old_pending)
  end
  if new_pending ~= "" then
    redis.call("SET", pending_prefix .. new_pending, id)
  end
end

local sets = tonumber(ARGV[idx])
idx = idx + 1
for _ = 1, sets do
  redis.call("HSET", key, ARGV[idx], ARGV[idx + 1])
  idx = idx + 2
end

local out = {3}
for _, v in ipairs(redis.call("HGETALL", key)) do
  table.insert(out, v)
end
return out
`

var updateLua = redis.NewScript(updateScript)

// Store is a Redis-backed account.Store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ account.Store = (*Store)(nil)

// New returns a Store using client under prefix. An empty prefix selects
// DefaultPrefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *Store) accountKey(id string) string {
	return s.prefix + ":id:" + id
}

func (s *Store) emailPrefix() string {
	return s.prefix + ":email:"
}

func (s *Store) pendingPrefix() string {
	return s.prefix + ":pending:"
}

// Create stores a. It fails with account.ErrEmailTaken when the email is
// indexed already.
func (s *Store) Create(ctx context.Context, a *account.Account) (*account.Account, error) {
	stored := a.Clone()
	now := s.now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	args := append([]any{stored.ID}, encodeAccount(stored)...)
	status, err := createLua.Run(ctx, s.redis,
		[]string{s.accountKey(stored.ID), s.emailPrefix() + stored.Email},
		args...,
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case createStatusCreated:
		return s.FindByID(ctx, stored.ID)
	case createStatusEmailTaken:
		return nil, account.ErrEmailTaken
	case createStatusIDTaken:
		return nil, fmt.Errorf("account id %v already exists", stored.ID)
	default:
		return nil, fmt.Errorf("unexpected create status %d", status)
	}
}

// FindByID returns the account id.
func (s *Store) FindByID(ctx context.Context, id string) (*account.Account, error) {
	if id == "" {
		return nil, account.ErrNotFound
	}
	h, err := s.redis.HGetAll(ctx, s.accountKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return decodeAccount(h)
}

// FindByEmail resolves the email index.
func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findByIndex(ctx, s.emailPrefix()+email, func(a *account.Account) bool {
		return a.Email == email
	})
}

// FindByPendingEmail resolves the pending-email index, which names the last
// account to request the address.
func (s *Store) FindByPendingEmail(ctx context.Context, email string) (*account.Account, error) {
	if email == "" {
		return nil, account.ErrNotFound
	}
	return s.findByIndex(ctx, s.pendingPrefix()+email, func(a *account.Account) bool {
		return a.PendingNewEmail == email
	})
}

// findByIndex resolves an index key and rejects index entries that no
// longer match the record.
func (s *Store) findByIndex(ctx context.Context, indexKey string, match func(*account.Account) bool) (*account.Account, error) {
	id, err := s.redis.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	a, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !match(a) {
		log.Debugf("Stale index %v -> %v", indexKey, id)
		return nil, account.ErrNotFound
	}
	return a, nil
}

// Update applies p to the account id if every precondition of p holds.
func (s *Store) Update(ctx context.Context, id string, p account.Patch) (*account.Account, error) {
	newEmail := ""
	if p.Email.Set {
		newEmail = p.Email.Value
	}
	pendingSet := "0"
	if p.PendingNewEmail.Set {
		pendingSet = "1"
	}

	expects := expectFields(p)
	sets := patchFields(p, s.now())

	args := make([]any, 0, 8+len(expects)+len(sets))
	args = append(args, id, s.emailPrefix(), s.pendingPrefix(), newEmail, pendingSet, p.PendingNewEmail.Value)
	args = append(args, len(expects)/2)
	args = append(args, expects...)
	args = append(args, len(sets)/2)
	args = append(args, sets...)

	res, err := updateLua.Run(ctx, s.redis, []string{s.accountKey(id)}, args...).Slice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) == 0 {
		return nil, errors.New("empty update response")
	}
	status, ok := res[0].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected update status %T", res[0])
	}

	switch status {
	case updateStatusUpdated:
		h := make(map[string]string, (len(res)-1)/2)
		for i := 1; i+1 < len(res); i += 2 {
			k, _ := res[i].(string)
			v, _ := res[i+1].(string)
			h[k] = v
		}
		return decodeAccount(h)
	case updateStatusNotFound:
		return nil, account.ErrNotFound
	case updateStatusPrecondition:
		log.Debugf("Precondition failed for account %v", id)
		return nil, account.ErrPreconditionFailed
	case updateStatusEmailTaken:
		return nil, account.ErrEmailTaken
	default:
		return nil, fmt.Errorf("unexpected update status %d", status)
	}
}
