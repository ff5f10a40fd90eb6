// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"slices"
	"strings"

	"github.com/MKhiriev/go-chat-keeper/models"
)

// BuildSyncPlan compares the local replica with a remote snapshot and
// resolves every divergent conversation with strategy.
//
// Remote-only conversations are downloaded. Local-only conversations are
// uploaded once saved; unsaved drafts stay local. A conversation present on
// both sides conflicts when its update time or its messages differ.
func BuildSyncPlan(local, remote []models.Conversation, strategy models.ConflictStrategy) models.SyncPlan {
	var plan models.SyncPlan

	localIndex := make(map[string]models.Conversation, len(local))
	for _, c := range local {
		localIndex[c.ID] = c
	}

	remoteIndex := make(map[string]models.Conversation, len(remote))
	for _, rc := range remote {
		remoteIndex[rc.ID] = rc

		lc, existsLocally := localIndex[rc.ID]
		if !existsLocally {
			plan.Download = append(plan.Download, rc)
			continue
		}

		if !Diverged(lc, rc) {
			continue
		}

		plan.Conflicts = append(plan.Conflicts, models.ConflictRecord{
			ConversationID: rc.ID,
			Local:          lc,
			Remote:         rc,
			Strategy:       strategy,
			Resolved:       true,
			Result:         Resolve(strategy, lc, rc),
		})
	}

	for _, lc := range local {
		if _, existsRemotely := remoteIndex[lc.ID]; !existsRemotely && lc.IsSaved {
			plan.Upload = append(plan.Upload, lc)
		}
	}

	return plan
}

// Diverged reports whether two snapshots of one conversation conflict. It
// compares the full message lists, so it has no false negatives. Update
// times are compared at the precision the remote store keeps.
func Diverged(local, remote models.Conversation) bool {
	return !models.SameInstant(local.UpdatedAt, remote.UpdatedAt) || !models.MessagesEqual(local.Messages, remote.Messages)
}

// Resolve applies strategy to a divergent pair. Unknown strategies merge.
func Resolve(strategy models.ConflictStrategy, local, remote models.Conversation) models.Conversation {
	switch strategy {
	case models.StrategyLocalWins:
		return local.Clone()
	case models.StrategyRemoteWins:
		return remote.Clone()
	case models.StrategyLatestWins:
		if remote.UpdatedAt.After(local.UpdatedAt) {
			return remote.Clone()
		}
		return local.Clone()
	default:
		return Merge(local, remote)
	}
}

// Merge unions the messages of both snapshots by id and sorts them by
// timestamp. A message present on both sides is taken from the snapshot
// updated later. The title follows the later snapshot, UpdatedAt is the
// maximum and CreatedAt the minimum of both.
//
// The result does not depend on argument order.
func Merge(a, b models.Conversation) models.Conversation {
	newer, older := a, b
	if laterSnapshot(b, a) {
		newer, older = b, a
	}
	tie := !laterSnapshot(newer, older)

	out := newer.Clone()
	out.Messages = unionMessages(newer.Messages, older.Messages, tie)

	if older.CreatedAt.Before(out.CreatedAt) && !older.CreatedAt.IsZero() {
		out.CreatedAt = older.CreatedAt
	}
	out.IsSaved = a.IsSaved || b.IsSaved
	if out.UserID == 0 {
		out.UserID = older.UserID
	}

	return out
}

// laterSnapshot reports whether x should win over y. Equal update times
// fall back to the title so that the choice is symmetric.
func laterSnapshot(x, y models.Conversation) bool {
	if c := x.UpdatedAt.Compare(y.UpdatedAt); c != 0 {
		return c > 0
	}
	return strings.Compare(x.Title, y.Title) > 0
}

// unionMessages deduplicates by id. Copies from preferred win unless tie is
// set, in which case the later, then lexically greater, copy wins.
func unionMessages(preferred, other []models.Message, tie bool) []models.Message {
	byID := make(map[string]models.Message, len(preferred)+len(other))
	order := make([]string, 0, len(preferred)+len(other))

	add := func(m models.Message, fromPreferred bool) {
		m.Attachments = slices.Clone(m.Attachments)

		existing, seen := byID[m.ID]
		switch {
		case !seen:
			order = append(order, m.ID)
			byID[m.ID] = m
		case fromPreferred && !tie:
			byID[m.ID] = m
		case laterMessage(m, existing):
			byID[m.ID] = m
		}
	}

	for _, m := range other {
		add(m, false)
	}
	for _, m := range preferred {
		add(m, true)
	}

	out := make([]models.Message, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	models.SortMessages(out)

	return out
}

func laterMessage(x, y models.Message) bool {
	if c := x.Timestamp.Compare(y.Timestamp); c != 0 {
		return c > 0
	}
	return strings.Compare(x.Content, y.Content) > 0
}
