package redlock

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/redquorum/redquorum/pkg/distributed/lockerr"
	"github.com/redquorum/redquorum/pkg/resilience/breaker"
)

// instance is the Instance Adapter: a thin layer over one backing Redis-
// compatible server that speaks the three scripted primitives and knows
// how to recover from a cold script cache. It has no notion of quorum;
// that lives one layer up in Coordinator.
type instance struct {
	client redis.UniversalClient
	cb     *breaker.Breaker
	addr   string

	lockSHA   string
	unlockSHA string
	pttlSHA   string
}

// newInstance wraps client, loading the scripted primitives immediately
// so steady-state calls can EVALSHA without a round trip to check
// existence first. addr names the instance's breaker and labels its log
// lines.
func newInstance(ctx context.Context, addr string, client redis.UniversalClient) (*instance, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	in := &instance{
		client: client,
		cb:     breaker.New("redlock-instance:" + addr),
		addr:   addr,
	}
	if err := in.loadScripts(ctx); err != nil {
		return nil, err
	}
	return in, nil
}

func (in *instance) loadScripts(ctx context.Context) error {
	lockSHA, err := in.client.ScriptLoad(ctx, lockScript).Result()
	if err != nil {
		return err
	}
	unlockSHA, err := in.client.ScriptLoad(ctx, unlockScript).Result()
	if err != nil {
		return err
	}
	pttlSHA, err := in.client.ScriptLoad(ctx, pttlScript).Result()
	if err != nil {
		return err
	}
	in.lockSHA, in.unlockSHA, in.pttlSHA = lockSHA, unlockSHA, pttlSHA
	return nil
}

func isNoScript(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NOSCRIPT")
}

// evalWithRecovery runs sha via EVALSHA, and on a NOSCRIPT miss reloads
// every script once and retries exactly once. A second NOSCRIPT after
// reload means something other than cache eviction is wrong (a different
// server answering, a version mismatch) and is not retried again.
func (in *instance) evalWithRecovery(ctx context.Context, sha string, source string, keys []string, args ...any) (any, error) {
	res, err := in.client.EvalSha(ctx, sha, keys, args...).Result()
	if err == nil || !isNoScript(err) {
		return res, err
	}
	slog.Debug("redlock: script cache miss, reloading", "addr", in.addr)
	if loadErr := in.loadScripts(ctx); loadErr != nil {
		return nil, lockerr.Wrap(ErrScriptReload, loadErr)
	}
	res, err = in.client.Eval(ctx, source, keys, args...).Result()
	if err != nil && isNoScript(err) {
		slog.Error("redlock: script still missing after reload", "addr", in.addr)
		return nil, ErrScriptReload
	}
	if err == nil {
		slog.Warn("redlock: recovered from script cache miss", "addr", in.addr)
	}
	return res, err
}

// tryAcquire runs the lock script. allowFresh=false restricts the call to
// the conditional-extend branch only (used by Extend). Returns true iff
// this instance now holds value for key.
func (in *instance) tryAcquire(ctx context.Context, key, value string, ttlMillis int64, allowFresh bool) (bool, error) {
	var ok bool
	err := in.cb.Do(ctx, func() error {
		fresh := "no"
		if allowFresh {
			fresh = "yes"
		}
		res, err := in.evalWithRecovery(ctx, in.lockSHA, lockScript, []string{key}, value, ttlMillis, fresh)
		if errors.Is(err, redis.Nil) {
			// The script's nil reply is a denial, not a server failure.
			return nil
		}
		if err != nil {
			return err
		}
		ok = res != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// release runs the unlock script. Returns true iff this instance deleted
// the key (i.e. it still held value).
func (in *instance) release(ctx context.Context, key, value string) (bool, error) {
	var ok bool
	err := in.cb.Do(ctx, func() error {
		res, err := in.evalWithRecovery(ctx, in.unlockSHA, unlockScript, []string{key}, value)
		if err != nil {
			return err
		}
		n, _ := res.(int64)
		ok = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// readTTL returns the value currently stored at key and its remaining
// PTTL in milliseconds, atomically. A missing key yields ("", -2, nil);
// a key with no expiry yields (value, -1, nil), matching Redis's own
// PTTL sentinel semantics.
func (in *instance) readTTL(ctx context.Context, key string) (string, int64, error) {
	var value string
	var pttl int64
	err := in.cb.Do(ctx, func() error {
		res, err := in.evalWithRecovery(ctx, in.pttlSHA, pttlScript, []string{key})
		if err != nil {
			return err
		}
		row, ok := res.([]any)
		if !ok || len(row) != 2 {
			return errors.New("redlock: malformed pttl script reply")
		}
		if row[0] != nil {
			value, _ = row[0].(string)
		}
		switch v := row[1].(type) {
		case int64:
			pttl = v
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return value, pttl, nil
}

// Ping checks connectivity to the backing server, bypassing the breaker:
// health checks are meant to observe real state, not be short-circuited
// by a trip that a health probe itself would help recover from.
func (in *instance) Ping(ctx context.Context) error {
	return in.client.Ping(ctx).Err()
}
