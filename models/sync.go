package models

import (
	"fmt"
	"strings"
)

// ConflictStrategy selects how a divergent conversation is resolved.
type ConflictStrategy string

const (
	StrategyLocalWins  ConflictStrategy = "local-wins"
	StrategyRemoteWins ConflictStrategy = "remote-wins"
	StrategyLatestWins ConflictStrategy = "latest-wins"
	StrategyMerge      ConflictStrategy = "merge"
)

// ParseConflictStrategy accepts the canonical names case-insensitively.
// An empty string selects [StrategyMerge].
func ParseConflictStrategy(s string) (ConflictStrategy, bool) {
	switch st := ConflictStrategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyMerge, true
	case StrategyLocalWins, StrategyRemoteWins, StrategyLatestWins, StrategyMerge:
		return st, true
	default:
		return "", false
	}
}

// ConflictRecord describes one divergent conversation during a reconcile
// pass. It lives only until the resolution is persisted.
type ConflictRecord struct {
	ConversationID string
	Local          Conversation
	Remote         Conversation
	Strategy       ConflictStrategy
	Resolved       bool
	Result         Conversation
}

// SyncPlan is the outcome of comparing the local replica with a remote
// snapshot.
type SyncPlan struct {
	// Download holds conversations that exist only remotely.
	Download []Conversation
	// Upload holds saved conversations that exist only locally.
	Upload []Conversation
	// Conflicts holds conversations that diverged, already resolved.
	Conflicts []ConflictRecord
}

// SyncReport summarizes one reconcile pass.
type SyncReport struct {
	Synced    int
	Pending   int
	Conflicts int
	// Skipped lists conversations left alone because a send was in flight.
	Skipped []string
}

// Clean reports whether nothing is left for a future pass.
func (r SyncReport) Clean() bool {
	return r.Pending == 0
}

func (r SyncReport) String() string {
	return fmt.Sprintf("synced %d, pending %d, conflicts %d", r.Synced, r.Pending, r.Conflicts)
}
