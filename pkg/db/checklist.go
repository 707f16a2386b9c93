package db

import (
	"context"
	"fmt"

	"github.com/matt-steen/sqr1/pkg/kv"
)

// AddChecklistItem appends an unchecked item to the tab's checklist. It returns ErrNotFound for an
// unknown project or tab and ErrChecklistLimit once the tab holds MaxFreeChecklistItems items.
func (s *ProjectStore) AddChecklistItem(ctx context.Context, projectID, tabID, text string) (*ChecklistItem, error) {
	var added ChecklistItem

	err := s.withTab(ctx, projectID, tabID, ErrNotFound, func(tab *Tab) error {
		if len(tab.Checklist) >= MaxFreeChecklistItems {
			return ErrChecklistLimit
		}

		added = ChecklistItem{ID: s.newID(), Text: text}
		tab.Checklist = append(tab.Checklist, added)

		return nil
	})
	if err != nil {
		return nil, s.done("add_checklist_item", fmt.Errorf("error adding checklist item to tab %s: %w", tabID, err))
	}

	return &added, s.done("add_checklist_item", nil)
}

// ToggleChecklistItem flips the done flag of an item.
func (s *ProjectStore) ToggleChecklistItem(ctx context.Context, projectID, tabID, itemID string) error {
	err := s.withItem(ctx, projectID, tabID, itemID, func(item *ChecklistItem) {
		item.Done = !item.Done
	})

	return s.done("toggle_checklist_item", err)
}

// UpdateChecklistItemText replaces the text of an item.
func (s *ProjectStore) UpdateChecklistItemText(ctx context.Context, projectID, tabID, itemID, text string) error {
	err := s.withItem(ctx, projectID, tabID, itemID, func(item *ChecklistItem) {
		item.Text = text
	})

	return s.done("update_checklist_item", err)
}

// RemoveChecklistItem deletes an item from the checklist.
func (s *ProjectStore) RemoveChecklistItem(ctx context.Context, projectID, tabID, itemID string) error {
	err := s.withTab(ctx, projectID, tabID, kv.ErrNoChange, func(tab *Tab) error {
		kept := make([]ChecklistItem, 0, len(tab.Checklist))

		for _, item := range tab.Checklist {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}

		if len(kept) == len(tab.Checklist) {
			return kv.ErrNoChange
		}

		tab.Checklist = kept

		return nil
	})
	if err != nil {
		err = fmt.Errorf("error removing checklist item %s: %w", itemID, err)
	}

	return s.done("remove_checklist_item", err)
}

// withItem applies fn to a checklist item; a missing project, tab or item is a no-op.
func (s *ProjectStore) withItem(ctx context.Context, projectID, tabID, itemID string, fn func(*ChecklistItem)) error {
	err := s.withTab(ctx, projectID, tabID, kv.ErrNoChange, func(tab *Tab) error {
		for i := range tab.Checklist {
			if tab.Checklist[i].ID == itemID {
				fn(&tab.Checklist[i])

				return nil
			}
		}

		return kv.ErrNoChange
	})
	if err != nil {
		return fmt.Errorf("error updating checklist item %s: %w", itemID, err)
	}

	return nil
}
