package ops

import (
	"context"
	"time"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
)

func utilityOps() []operation.Descriptor {
	return []operation.Descriptor{
		{
			Name:        "Sleep",
			Module:      "Default",
			Description: "Wait for the given number of milliseconds. The input passes through unchanged.",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.ArrayBuffer,
			Args: []operation.ArgSpec{
				{Name: "Time (ms)", Type: operation.ArgNumber, Default: ir.IRInt(1000)},
			},
			Run: operation.Transform(sleep),
		},
		{
			Name:        "Fail",
			Module:      "Default",
			Description: "Always fail with the given message.",
			InputType:   dish.String,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Message", Type: operation.ArgString, Default: ir.IRString("failed")},
			},
			Run: operation.Transform(func(_ context.Context, _ string, args operation.Args) (string, error) {
				msg, err := args.String(0)
				if err != nil {
					return "", err
				}
				return "", operation.Errorf("%s", msg)
			}),
		},
	}
}

func sleep(ctx context.Context, in []byte, args operation.Args) ([]byte, error) {
	ms, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	if ms <= 0 {
		return in, nil
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return in, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
