package store

import "github.com/JakeFAU/daily-supplications/internal/catalog"

// Item is one row of an active list: a bundled or custom supplication with
// its completion flag.
type Item struct {
	catalog.Supplication
	IsCustom  bool         `json:"isCustom"`
	Type      catalog.Type `json:"type"`
	Completed bool         `json:"completed"`
}

// Progress summarizes an active list.
type Progress struct {
	Total        int  `json:"total"`
	Completed    int  `json:"completed"`
	AllCompleted bool `json:"allCompleted"`
}

// ActiveList returns the bundled supplications of typ in their fixed order,
// followed by the custom supplications of typ in insertion order.
func ActiveList(cat *catalog.Catalog, snap Snapshot, typ catalog.Type) ([]Item, error) {
	bundled, err := cat.List(snap.Language, typ)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(bundled)+len(snap.Custom))
	for _, s := range bundled {
		items = append(items, Item{
			Supplication: s,
			Type:         typ,
			Completed:    snap.Completions[s.ID],
		})
	}
	for _, c := range snap.Custom {
		if c.Type != typ {
			continue
		}
		items = append(items, Item{
			Supplication: c.Supplication,
			IsCustom:     true,
			Type:         typ,
			Completed:    snap.Completions[c.ID],
		})
	}
	return items, nil
}

// AllCompleted reports whether items is non-empty and every id in it is
// marked completed.
func AllCompleted(items []Item, completions CompletionState) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if !completions[it.ID] {
			return false
		}
	}
	return true
}

// Summarize counts completed items.
func Summarize(items []Item, completions CompletionState) Progress {
	p := Progress{Total: len(items)}
	for _, it := range items {
		if completions[it.ID] {
			p.Completed++
		}
	}
	p.AllCompleted = AllCompleted(items, completions)
	return p
}
