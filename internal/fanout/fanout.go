package fanout

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"outlookmcp/internal/config"
)

// Outcome is the per-account result of a fanned-out operation. Exactly
// one of Data and Err is meaningful.
type Outcome[T any] struct {
	Account string
	Data    T
	Err     error
}

// Operation is the per-account unit of work.
type Operation[T any] func(ctx context.Context, account string) (T, error)

// Execute runs op against the targeted account, or against every
// registered account when target is empty. An unknown target fails with
// config.ErrAccountNotFound before any operation starts.
//
// Operations run concurrently and all of them settle before Execute
// returns: one account's failure never cancels or blocks the others.
// Outcome order matches registry order regardless of completion order.
func Execute[T any](ctx context.Context, reg *config.Registry, target string, op Operation[T]) ([]Outcome[T], error) {
	var accounts []string
	if target != "" {
		if _, err := reg.Get(target); err != nil {
			return nil, err
		}
		accounts = []string{target}
	} else {
		accounts = reg.List()
	}

	outcomes := make([]Outcome[T], len(accounts))

	var g errgroup.Group
	for i, account := range accounts {
		g.Go(func() error {
			outcomes[i] = run(ctx, account, op)
			return nil
		})
	}
	// The group never carries an error; failures live in the outcomes.
	_ = g.Wait()

	return outcomes, nil
}

// run executes one account's operation, converting any failure, panics
// included, into outcome data.
func run[T any](ctx context.Context, account string, op Operation[T]) (out Outcome[T]) {
	out.Account = account
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	out.Data, out.Err = op(ctx, account)
	return out
}
