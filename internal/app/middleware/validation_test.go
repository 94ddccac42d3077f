package middleware_test

import (
	"context"
	"errors"
	"testing"

	"carpool/internal/app/commands"
	"carpool/internal/app/middleware"
)

type guardedCommand struct {
	Bad bool
}

var errBadCommand = errors.New("bad command")

func (c guardedCommand) Key() string { return "guarded" }

func (c guardedCommand) Validate() error {
	if c.Bad {
		return errBadCommand
	}
	return nil
}

func TestValidationRejectsBeforeHandler(t *testing.T) {
	var calls int
	base := commands.NewInMemoryBus()
	commands.RegisterHandler(base, "guarded", commands.HandlerFunc[guardedCommand, any](
		func(ctx context.Context, cmd guardedCommand) (any, error) {
			calls++
			return nil, nil
		}))
	bus := middleware.ChainCommands(base, middleware.Validation(middleware.SelfValidator{}))

	if _, err := bus.Dispatch(context.Background(), guardedCommand{Bad: true}); !errors.Is(err, errBadCommand) {
		t.Fatalf("error = %v, want errBadCommand", err)
	}
	if calls != 0 {
		t.Errorf("handler ran %d times for an invalid command", calls)
	}

	if _, err := bus.Dispatch(context.Background(), guardedCommand{}); err != nil {
		t.Fatalf("valid dispatch: %v", err)
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}
