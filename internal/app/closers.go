package app

import (
	"context"
	"errors"
)

// closers collects shutdown funcs for components started so far and runs
// them in reverse start order.
type closers []func(context.Context) error

func (c *closers) add(fn func(context.Context) error) {
	*c = append(*c, fn)
}

// closeAll runs every func even when earlier ones fail.
func (c closers) closeAll(ctx context.Context) error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
