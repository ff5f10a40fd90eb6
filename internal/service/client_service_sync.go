// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/adapter"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
	"github.com/MKhiriev/go-chat-keeper/models"
	"golang.org/x/sync/singleflight"
)

// Reconciler brings the local replica and the remote store back in line
// after a period offline.
//
// A pass lists the remote snapshot, resolves divergent conversations with
// the configured strategy, downloads and uploads one-sided conversations and
// finally replays the change journal in chronological order. Every item is
// handled independently: a failure is counted as pending and the pass goes
// on. Conversations with an in-flight send are skipped. The replica and the
// journal are reloaded first, so changes made by other client processes
// sharing the local store take part in the pass.
type Reconciler struct {
	remote   adapter.RemoteStore
	replica  *store.Replica
	journal  *store.Journal
	strategy models.ConflictStrategy

	group  singleflight.Group
	logger *logger.Logger
}

// NewReconciler wires a reconciler. An empty strategy means merge.
func NewReconciler(remote adapter.RemoteStore, replica *store.Replica, journal *store.Journal, strategy models.ConflictStrategy, log *logger.Logger) *Reconciler {
	if strategy == "" {
		strategy = models.StrategyMerge
	}
	return &Reconciler{
		remote:   remote,
		replica:  replica,
		journal:  journal,
		strategy: strategy,
		logger:   log,
	}
}

// Reconcile implements [ConversationSyncer]. Calls that overlap a running
// pass wait for it and receive its report.
func (r *Reconciler) Reconcile(ctx context.Context) (models.SyncReport, error) {
	v, err, _ := r.group.Do("reconcile", func() (any, error) {
		return r.reconcile(ctx)
	})
	report, _ := v.(models.SyncReport)
	return report, err
}

// syncPass carries the state of one reconcile run.
type syncPass struct {
	report models.SyncReport

	// outcomes holds the conversations written remotely during this pass.
	// Journal replay sends these instead of the queued payloads.
	outcomes map[string]models.Conversation
	// held marks conversations whose journal entries must stay queued.
	held    map[string]bool
	skipped map[string]bool
}

func (p *syncPass) skip(id string) {
	if !p.skipped[id] {
		p.skipped[id] = true
		p.report.Skipped = append(p.report.Skipped, id)
	}
	p.held[id] = true
	p.report.Pending++
}

func (p *syncPass) fail(id string) {
	p.held[id] = true
	p.report.Pending++
}

func (r *Reconciler) reconcile(ctx context.Context) (models.SyncReport, error) {
	r.refresh(ctx)

	remote, err := r.remote.ListConversations(ctx)
	if err != nil {
		r.logger.Err(err).Str("func", "*Reconciler.reconcile").Msg("remote snapshot unavailable")
		return models.SyncReport{Pending: r.journal.Len()}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	plan := BuildSyncPlan(r.replica.List(), remote, r.strategy)
	pass := &syncPass{
		outcomes: make(map[string]models.Conversation),
		held:     make(map[string]bool),
		skipped:  make(map[string]bool),
	}

	for _, rec := range plan.Conflicts {
		r.resolveConflict(ctx, pass, rec)
	}
	for _, c := range plan.Download {
		r.download(ctx, pass, c)
	}
	for _, c := range plan.Upload {
		r.upload(ctx, pass, c)
	}
	r.replay(ctx, pass)

	r.logger.Info().
		Int("synced", pass.report.Synced).
		Int("pending", pass.report.Pending).
		Int("conflicts", pass.report.Conflicts).
		Strs("skipped", pass.report.Skipped).
		Msg("reconcile pass finished")

	return pass.report, nil
}

// refresh picks up what other client processes wrote to the local store
// since the last pass. On failure the pass works on the state in memory.
func (r *Reconciler) refresh(ctx context.Context) {
	if err := r.replica.Load(ctx); err != nil {
		r.logger.Err(err).Str("func", "*Reconciler.refresh").Msg("failed to reload replica")
	}
	if err := r.journal.Load(ctx); err != nil {
		r.logger.Err(err).Str("func", "*Reconciler.refresh").Msg("failed to reload journal")
	}
}

func (r *Reconciler) resolveConflict(ctx context.Context, pass *syncPass, rec models.ConflictRecord) {
	id := rec.ConversationID
	if r.replica.IsBusy(id) {
		pass.skip(id)
		return
	}
	pass.report.Conflicts++

	result := rec.Result
	if Diverged(result, rec.Remote) {
		if err := r.putRemote(ctx, result); err != nil {
			r.logger.Err(err).Str("func", "*Reconciler.resolveConflict").Str("conversation_id", id).Msg("failed to push resolution")
			pass.fail(id)
			return
		}
	}

	if Diverged(result, rec.Local) {
		if err := r.replica.Replace(ctx, result); err != nil {
			r.logger.Err(err).Str("func", "*Reconciler.resolveConflict").Str("conversation_id", id).Msg("failed to store resolution")
			if errors.Is(err, store.ErrConversationBusy) {
				pass.skip(id)
				return
			}
			pass.fail(id)
			return
		}
	}

	pass.outcomes[id] = result
	pass.report.Synced++
}

func (r *Reconciler) download(ctx context.Context, pass *syncPass, c models.Conversation) {
	// Deleted locally while offline; the queued delete removes it remotely.
	if r.journal.Has(c.ID, models.ChangeDeleteConversation) {
		return
	}

	if err := r.replica.Replace(ctx, c); err != nil {
		r.logger.Err(err).Str("func", "*Reconciler.download").Str("conversation_id", c.ID).Msg("failed to store remote conversation")
		if errors.Is(err, store.ErrConversationBusy) {
			pass.skip(c.ID)
			return
		}
		pass.fail(c.ID)
		return
	}
	pass.report.Synced++
}

func (r *Reconciler) upload(ctx context.Context, pass *syncPass, c models.Conversation) {
	if r.replica.IsBusy(c.ID) {
		pass.skip(c.ID)
		return
	}
	// The queued create uploads it during replay.
	if r.journal.Has(c.ID, models.ChangeCreateConversation) {
		return
	}

	if err := r.createRemote(ctx, c); err != nil {
		r.logger.Err(err).Str("func", "*Reconciler.upload").Str("conversation_id", c.ID).Msg("failed to upload conversation")
		pass.fail(c.ID)
		return
	}
	pass.outcomes[c.ID] = c
	pass.report.Synced++
}

// replay sends the queued changes in order. A record is removed only after
// the remote store accepted it, so a failed record is retried next pass.
func (r *Reconciler) replay(ctx context.Context, pass *syncPass) {
	for _, rec := range r.journal.Pending() {
		id := rec.ConversationID
		if pass.held[id] || r.replica.IsBusy(id) {
			pass.report.Pending++
			continue
		}

		if err := r.apply(ctx, pass, rec); err != nil {
			r.logger.Err(err).
				Str("func", "*Reconciler.replay").
				Str("record_id", rec.ID).
				Str("kind", string(rec.Kind)).
				Str("conversation_id", id).
				Msg("failed to replay change")
			pass.report.Pending++
			continue
		}

		if err := r.journal.Remove(ctx, rec.ID); err != nil {
			r.logger.Err(err).Str("func", "*Reconciler.replay").Str("record_id", rec.ID).Msg("failed to drop replayed change")
			pass.report.Pending++
			continue
		}
		pass.report.Synced++
	}
}

func (r *Reconciler) apply(ctx context.Context, pass *syncPass, rec models.ChangeRecord) error {
	switch rec.Kind {
	case models.ChangeCreateConversation:
		c, ok := r.current(pass, rec.ConversationID)
		if !ok {
			// Deleted locally after it was queued.
			return nil
		}
		if err := r.createRemote(ctx, c); err != nil {
			return err
		}
		pass.outcomes[c.ID] = c
		return nil

	case models.ChangeUpdateTitle:
		var (
			title     string
			updatedAt time.Time
		)
		if c, ok := pass.outcomes[rec.ConversationID]; ok {
			title, updatedAt = c.Title, c.UpdatedAt
		} else {
			p, err := rec.Title()
			if err != nil {
				return fmt.Errorf("decode %s payload: %w", rec.Kind, err)
			}
			title, updatedAt = p.Title, p.UpdatedAt
		}

		found, err := r.remote.UpdateTitle(ctx, rec.ConversationID, title, updatedAt)
		if err != nil {
			return err
		}
		if !found {
			return r.recreate(ctx, pass, rec.ConversationID)
		}
		return nil

	case models.ChangeUpdateMessages:
		var p models.MessagesPayload
		if c, ok := pass.outcomes[rec.ConversationID]; ok {
			p = models.MessagesPayload{Messages: c.Messages, UpdatedAt: c.UpdatedAt}
		} else {
			var err error
			if p, err = rec.Messages(); err != nil {
				return fmt.Errorf("decode %s payload: %w", rec.Kind, err)
			}
		}

		found, err := r.remote.UpdateMessages(ctx, rec.ConversationID, p.Messages, p.UpdatedAt)
		if err != nil {
			return err
		}
		if !found {
			return r.recreate(ctx, pass, rec.ConversationID)
		}
		return nil

	case models.ChangeDeleteConversation:
		if err := r.remote.DeleteConversation(ctx, rec.ConversationID); err != nil {
			return err
		}
		delete(pass.outcomes, rec.ConversationID)
		return nil

	default:
		r.logger.Warn().Str("func", "*Reconciler.apply").Str("kind", string(rec.Kind)).Msg("dropping change of unknown kind")
		return nil
	}
}

// current returns the freshest known version of a conversation: the one
// written remotely in this pass, otherwise the replica's.
func (r *Reconciler) current(pass *syncPass, id string) (models.Conversation, bool) {
	if c, ok := pass.outcomes[id]; ok {
		return c, true
	}
	return r.replica.Get(id)
}

// recreate uploads a conversation whose remote copy vanished.
func (r *Reconciler) recreate(ctx context.Context, pass *syncPass, id string) error {
	c, ok := r.current(pass, id)
	if !ok {
		return nil
	}
	if err := r.createRemote(ctx, c); err != nil {
		return err
	}
	pass.outcomes[id] = c
	return nil
}

// createRemote creates c, or overwrites it when the id is already taken.
func (r *Reconciler) createRemote(ctx context.Context, c models.Conversation) error {
	err := r.remote.CreateConversation(ctx, c)
	if err == nil {
		return nil
	}
	if !errors.Is(err, adapter.ErrConflict) {
		return err
	}

	found, err := r.remote.UpdateConversation(ctx, c)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("conversation %s vanished during create: %w", c.ID, adapter.ErrNotFound)
	}
	return nil
}

// putRemote overwrites c, or creates it when the remote copy vanished.
func (r *Reconciler) putRemote(ctx context.Context, c models.Conversation) error {
	found, err := r.remote.UpdateConversation(ctx, c)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return r.remote.CreateConversation(ctx, c)
}
