package viewmodel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"todopro/internal/metrics"
	"todopro/internal/service"
)

// pendingDelete is a deletion inside its undo window. It resolves exactly
// once: whoever removes it from Model.pending (Undo, Close or the commit
// that finishes) acts on it. While committing is set it can no longer be
// undone but still hides the task from reloads.
type pendingDelete struct {
	task       service.Task
	seq        int
	timer      Timer
	noteID     uuid.UUID
	committing bool
}

// Delete removes a task from the list at once and sends the delete after
// the undo window unless Undo is called first. Each deletion has its own
// timer. It reports false if the task is not in the list.
func (m *Model) Delete(id string) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	task, ok := m.removeLocked(id)
	if !ok {
		m.mu.Unlock()
		return false
	}
	m.seq++
	pd := &pendingDelete{task: task, seq: m.seq, noteID: uuid.New()}
	m.pending[id] = pd
	pd.timer = m.schedule(m.undoWindow, func() { m.commitDue(pd) })
	m.mu.Unlock()

	m.logger.Debug("delete pending", "id", id, "window", m.undoWindow)
	m.changed()
	m.send(Notification{
		ID:       pd.noteID,
		Level:    LevelInfo,
		Message:  MsgTaskDeleted,
		Action:   &Action{Label: "Undo", Handler: func() { m.Undo(id) }},
		Duration: m.undoWindow,
	})
	return true
}

// Undo cancels the pending deletion of id and puts the task back at the
// front of the list. It reports false once the delete has been sent.
func (m *Model) Undo(id string) bool {
	m.mu.Lock()
	pd, ok := m.pending[id]
	if !ok || pd.committing {
		m.mu.Unlock()
		return false
	}
	pd.timer.Stop()
	m.resolveLocked(pd)
	m.restoreLocked(pd.task)
	m.mu.Unlock()

	m.metrics.ObserveDelete(metrics.OutcomeUndone)
	m.logger.Debug("delete undone", "id", id)
	m.changed()
	m.dismiss(pd.noteID)
	m.notify(LevelSuccess, MsgUndone)
	return true
}

// UndoLast undoes the most recent deletion that can still be undone.
func (m *Model) UndoLast() bool {
	m.mu.Lock()
	var last *pendingDelete
	for _, pd := range m.pending {
		if !pd.committing && (last == nil || pd.seq > last.seq) {
			last = pd
		}
	}
	m.mu.Unlock()
	if last == nil {
		return false
	}
	return m.Undo(last.task.ID)
}

// UndoWindow returns how long a deletion stays undoable.
func (m *Model) UndoWindow() time.Duration { return m.undoWindow }

// PendingDeletes returns the ids of deletions not yet resolved.
func (m *Model) PendingDeletes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	return ids
}

// commitDue is the timer callback.
func (m *Model) commitDue(pd *pendingDelete) {
	if !m.claim(pd) {
		return
	}
	// Undo no longer applies, so the commit outlives the caller's context.
	_ = m.commit(context.WithoutCancel(m.ctx), pd)
}

// claim marks pd as committing if it is still undoable.
func (m *Model) claim(pd *pendingDelete) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.pending[pd.task.ID]
	if !ok || cur != pd || pd.committing {
		return false
	}
	pd.committing = true
	return true
}

// commit sends the delete for a claimed pd. A 404 means the server no
// longer has the task, which is what the delete wanted. Any other failure
// restores the task at the front of the list.
func (m *Model) commit(ctx context.Context, pd *pendingDelete) error {
	id := pd.task.ID
	err := m.svc.DeleteTask(ctx, id)
	if service.KindOf(err) == service.KindNotFound {
		m.logger.Debug("task already gone on server", "id", id)
		err = nil
	}

	m.mu.Lock()
	m.resolveLocked(pd)
	if err != nil {
		m.restoreLocked(pd.task)
		m.failed[id] = err
	} else {
		delete(m.failed, id)
	}
	m.mu.Unlock()

	m.dismiss(pd.noteID)
	if err != nil {
		m.metrics.ObserveDelete(metrics.OutcomeRolledBack)
		m.logger.Warn("delete failed, restored task", "id", id, "err", err)
		m.changed()
		m.notify(LevelError, MsgDeleteFailed)
		return err
	}
	m.metrics.ObserveDelete(metrics.OutcomeCommitted)
	m.logger.Debug("delete committed", "id", id)
	m.changed()
	return nil
}

// CommitError returns why the last delete of id was rolled back, or nil
// if it was sent or never failed.
func (m *Model) CommitError(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed[id]
}

// Flush sends every undoable pending delete now, in parallel, and waits
// for them. It returns the first failure; failed tasks are restored.
func (m *Model) Flush(ctx context.Context) error {
	m.mu.Lock()
	var claimed []*pendingDelete
	for _, pd := range m.pending {
		if pd.committing {
			continue
		}
		pd.timer.Stop()
		pd.committing = true
		claimed = append(claimed, pd)
	}
	m.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(maxParallelDeletes)
	for _, pd := range claimed {
		g.Go(func() error {
			return m.commit(ctx, pd)
		})
	}
	return g.Wait()
}

// Wait blocks until no deletion is pending or ctx is done.
func (m *Model) Wait(ctx context.Context) error {
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return nil
		}
		ch := m.resolved
		m.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting deletions and retracts those still undoable, so
// nothing is sent after the view goes away. Deletes already being sent
// run to completion. It returns the number retracted.
func (m *Model) Close() int {
	m.mu.Lock()
	m.closed = true
	var retracted []*pendingDelete
	for _, pd := range m.pending {
		if pd.committing {
			continue
		}
		pd.timer.Stop()
		m.resolveLocked(pd)
		m.restoreLocked(pd.task)
		retracted = append(retracted, pd)
	}
	m.mu.Unlock()

	for _, pd := range retracted {
		m.metrics.ObserveDelete(metrics.OutcomeUndone)
		m.logger.Debug("pending delete retracted", "id", pd.task.ID)
	}
	if len(retracted) > 0 {
		m.changed()
	}
	return len(retracted)
}

// resolveLocked removes pd from the pending set and wakes Wait.
func (m *Model) resolveLocked(pd *pendingDelete) {
	delete(m.pending, pd.task.ID)
	close(m.resolved)
	m.resolved = make(chan struct{})
}

func (m *Model) restoreLocked(t service.Task) {
	m.removeLocked(t.ID)
	m.tasks = prepend(m.tasks, t)
}
