package async

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Gate collapses concurrent identical submissions onto one call. Two
// submissions are identical only when their keys match, so a key must cover
// every field that reaches the remote API.
type Gate struct {
	group singleflight.Group
}

// NewGate returns an empty Gate.
func NewGate() *Gate { return &Gate{} }

// Key builds the gate key for action from the submitted fields. The fields
// are hashed, so secrets such as passwords never sit in the key in the clear.
// Each field is length-prefixed so ("ab", "c") and ("a", "bc") differ.
func Key(action string, fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		h.Write([]byte(strconv.Itoa(len(f))))
		h.Write([]byte{':'})
		h.Write([]byte(f))
	}
	return action + ":" + hex.EncodeToString(h.Sum(nil))
}

// Submit runs fn unless a submission with the same key is already in flight,
// in which case it waits for and returns that submission's outcome. shared is
// true when the outcome was delivered to more than one caller.
//
// fn runs detached from ctx cancellation so that a caller giving up does not
// abort the outcome other callers are waiting on. If ctx ends first the
// caller gets ctx.Err() and the result is discarded. fn must not depend on
// request-scoped resources that are released when the caller returns.
func Submit[T any](ctx context.Context, g *Gate, key string, fn func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if g == nil {
		v, err := fn(ctx)
		return v, false, err
	}

	detached := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		v, _ := res.Val.(T)
		return v, res.Shared, nil
	}
}
