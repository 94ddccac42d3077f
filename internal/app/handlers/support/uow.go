package support

import (
	"context"

	"carpool/internal/app/outbox"
	"carpool/internal/app/uow"
	"carpool/internal/domain/shared/events"
)

// BeginReadOnlyUnit reuses a unit of work from context or starts a read-only
// one. The returned cleanup is nil when the unit belongs to the caller.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := injectUnitContext(ctx, newUnit)
	execCtx = uow.ContextWithUnitOfWork(execCtx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// WriteUnit wraps a unit of work for a command handler. When the transaction
// middleware already opened one, commit and rollback stay with the
// middleware; otherwise the handler manages the boundary itself.
type WriteUnit struct {
	Unit      uow.UnitOfWork
	Ctx       context.Context
	managed   bool
	committed bool
}

// BeginWriteUnit reuses the unit of work from context or starts a new
// writable one.
func BeginWriteUnit(ctx context.Context, factory uow.UoWFactory) (*WriteUnit, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &WriteUnit{Unit: unit, Ctx: ctx}, nil
	}
	if factory == nil {
		return nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	execCtx := injectUnitContext(ctx, unit)
	return &WriteUnit{Unit: unit, Ctx: uow.ContextWithUnitOfWork(execCtx, unit), managed: true}, nil
}

// injectUnitContext lets session-backed stores bind the unit's transaction to
// the context, so repository calls run inside it rather than alongside it.
func injectUnitContext(ctx context.Context, unit uow.UnitOfWork) context.Context {
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		return injector.InjectContext(ctx)
	}
	return ctx
}

// Commit finishes the transaction if this handler owns it.
func (w *WriteUnit) Commit(ctx context.Context) error {
	if !w.managed {
		return nil
	}
	if err := w.Unit.Commit(ctx); err != nil {
		return err
	}
	w.committed = true
	return nil
}

// Close rolls back an owned, uncommitted unit. Safe to defer unconditionally.
func (w *WriteUnit) Close(ctx context.Context) {
	if w.managed && !w.committed {
		_ = w.Unit.Rollback(ctx)
	}
}

// EventSource is any aggregate carrying recorded domain events.
type EventSource interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}

// DrainEvents moves the pending events of the given aggregates into the
// outbox within the current transaction.
func DrainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, sources ...EventSource) error {
	for _, src := range sources {
		if src == nil {
			continue
		}
		evs := src.PendingEvents()
		src.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, box, encoder, evs); err != nil {
			return err
		}
	}
	return nil
}
