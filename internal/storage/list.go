package storage

import "context"

// PersistentList couples a Collection with a Scheduler. Stores call Enqueue
// with their committed state after every mutation.
type PersistentList[T any] struct {
	coll  *Collection[T]
	sched Scheduler
}

func NewPersistentList[T any](coll *Collection[T], sched Scheduler) *PersistentList[T] {
	if sched == nil {
		sched = Immediate{}
	}
	return &PersistentList[T]{coll: coll, sched: sched}
}

func (p *PersistentList[T]) Load(ctx context.Context) []T {
	return p.coll.Load(ctx)
}

// Enqueue schedules a save of a private copy of items.
func (p *PersistentList[T]) Enqueue(items []T) {
	snapshot := make([]T, len(items))
	copy(snapshot, items)
	p.sched.Schedule(p.coll.Key(), func(ctx context.Context) {
		p.coll.Save(ctx, snapshot)
	})
}

// Discard schedules removal of the stored collection. It is ordered with
// Enqueue calls for the same key like any other write.
func (p *PersistentList[T]) Discard() {
	p.sched.Schedule(p.coll.Key(), func(ctx context.Context) {
		p.coll.Clear(ctx)
	})
}
