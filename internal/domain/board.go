package domain

// Board is the top-level collaborative workspace. Selecting a board switches
// the entire synchronized state; no state survives a board switch.
type Board struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a named, colored grouping of todos. Color is nullable; absent
// colors render as a default gray. Categories are only ever mutated by server
// broadcast, never inferred locally.
type Category struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Color   *string `json:"color"`
	BoardID int64   `json:"board_id"`
}

// CategoryPatch is the update_category payload body.
type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// Apply shallow-merges the patch onto c.
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = p.Color
	}
}
