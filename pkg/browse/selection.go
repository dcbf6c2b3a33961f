package browse

import "github.com/sourcehub/connectkit/pkg/models"

// Selection is the set of selected item ids. Membership is independent of
// where the user currently is in the tree.
type Selection struct {
	ids   map[string]struct{}
	order []string
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips the selection state of an item. Non-selectable items
// (folders) are a no-op, not an error. Returns true if the item is selected
// after the call.
func (s *Selection) Toggle(item *models.RemoteItem) bool {
	if !item.IsSelectable {
		return false
	}
	id := item.ExternalID
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return false
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains reports whether the id is selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Count returns the number of selected items.
func (s *Selection) Count() int {
	return len(s.ids)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
	s.order = nil
}
