// Package browse drives the remote file browser: the breadcrumb navigation
// stack, the selection set, and the orchestration between listing calls and
// the item cache.
package browse

import (
	"errors"

	"github.com/sourcehub/connectkit/pkg/models"
)

// ErrNotExpandable is returned when descending into a non-folder item.
var ErrNotExpandable = errors.New("item is not expandable")

// Stack is the breadcrumb path from root to the currently open directory.
// It is never empty; index 0 is a synthetic root whose DirectoryID is nil.
type Stack struct {
	entries []models.PathEntry
}

// NewStack returns a stack holding only the root entry.
func NewStack() *Stack {
	s := &Stack{}
	s.reset(nil, "")
	return s
}

func (s *Stack) reset(accountID *string, marker string) {
	s.entries = []models.PathEntry{{
		HasMoreFiles:   true,
		AccountID:      accountID,
		LastSyncMarker: marker,
	}}
}

// Depth returns the stack depth including the root entry.
func (s *Stack) Depth() int {
	return len(s.entries)
}

// Entries returns a copy of the stack, root first.
func (s *Stack) Entries() []models.PathEntry {
	out := make([]models.PathEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Top returns the current directory entry.
func (s *Stack) Top() models.PathEntry {
	return s.entries[len(s.entries)-1]
}

// UpdateTopCursor records the latest pagination cursor on the current
// directory so returning to this level resumes where it left off.
func (s *Stack) UpdateTopCursor(offset int, hasMoreFiles bool) {
	top := &s.entries[len(s.entries)-1]
	top.Offset = offset
	top.HasMoreFiles = hasMoreFiles
}

// DescendInto pushes the given folder onto the stack with a fresh cursor.
// The current top keeps its cursor as-is, so breadcrumb navigation back to
// it resumes correctly.
func (s *Stack) DescendInto(item *models.RemoteItem) error {
	if !item.IsExpandable {
		return ErrNotExpandable
	}
	top := s.Top()
	id := item.ExternalID
	s.entries = append(s.entries, models.PathEntry{
		DirectoryID:    &id,
		Name:           item.Name,
		HasMoreFiles:   true,
		ParentID:       top.DirectoryID,
		AccountID:      top.AccountID,
		LastSyncMarker: top.LastSyncMarker,
	})
	return nil
}

// JumpToBreadcrumb truncates the stack to [0..index]. A negative index
// jumps to the root.
func (s *Stack) JumpToBreadcrumb(index int) {
	if index < 0 {
		index = 0
	}
	if index >= len(s.entries) {
		return
	}
	s.entries = s.entries[:index+1]
}

// ResetForAccount replaces the stack with a single root entry scoped to the
// given account. This is the invalidation point for everything cached under
// the previous scope.
func (s *Stack) ResetForAccount(accountID *string, lastSyncMarker string) {
	s.reset(accountID, lastSyncMarker)
}
