// Package repokit binds domain executors to the store read seam
package repokit

import (
	"context"
	"fmt"
	"time"

	"insights/internal/platform/store"
)

// Queryer is what executors are bound to
type Queryer = store.Querier

// Binder builds a domain executor over a Queryer
type Binder[T any] interface {
	Bind(Queryer) T
}

// MustBind binds b to q, a nil q is a wiring bug
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}

type guarder interface {
	Guard(context.Context) error
}

// GuardTimeout bounds MustGuard when ctx has no deadline
const GuardTimeout = 10 * time.Second

// MustGuard pings every opened backend and panics on the first boot failure
func MustGuard(ctx context.Context, st guarder) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, GuardTimeout)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
