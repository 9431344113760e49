package catalog

import (
	"errors"
	"log/slog"
	"strings"
)

var (
	// ErrNoItems is returned when the catalog snapshot is empty.
	ErrNoItems = errors.New("no items in catalog")

	// ErrNoUsableText is returned when every item was dropped for having no text.
	ErrNoUsableText = errors.New("no item in catalog has usable text")
)

// Table is the normalized catalog. It is immutable once built.
type Table struct {
	docs  []Document
	index map[string]int
}

// Normalize builds the document text for each item and drops items whose
// text is empty after trimming. Catalog order is preserved among kept items.
// Items without an identifier, and repeated identifiers after the first, are
// dropped as well.
func Normalize(items []Item) (*Table, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	t := &Table{
		docs:  make([]Document, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		if it.ID == "" {
			slog.Warn("dropping catalog item without id", "title", it.Title)
			continue
		}
		text := DocumentText(it.Title, it.Tags)
		if text == "" {
			continue
		}
		if _, dup := t.index[it.ID]; dup {
			slog.Warn("dropping duplicate catalog item", "id", it.ID)
			continue
		}
		pos := len(t.docs)
		t.docs = append(t.docs, Document{
			ID:       it.ID,
			Title:    it.Title,
			Text:     text,
			Position: pos,
		})
		t.index[it.ID] = pos
	}

	if len(t.docs) == 0 {
		return nil, ErrNoUsableText
	}
	return t, nil
}

// DocumentText joins a title and its tags with single spaces and trims the result.
func DocumentText(title string, tags []string) string {
	return strings.TrimSpace(title + " " + strings.Join(tags, " "))
}

// Len returns the number of kept documents.
func (t *Table) Len() int { return len(t.docs) }

// Documents returns the kept documents in catalog order. The slice must not be modified.
func (t *Table) Documents() []Document { return t.docs }

// Lookup returns the kept document with the given identifier.
func (t *Table) Lookup(id string) (Document, bool) {
	pos, ok := t.index[id]
	if !ok {
		return Document{}, false
	}
	return t.docs[pos], true
}

// Texts returns the document texts in catalog order.
func (t *Table) Texts() []string {
	out := make([]string, len(t.docs))
	for i, d := range t.docs {
		out[i] = d.Text
	}
	return out
}

// IDs returns the document identifiers in catalog order.
func (t *Table) IDs() []string {
	out := make([]string, len(t.docs))
	for i, d := range t.docs {
		out[i] = d.ID
	}
	return out
}
