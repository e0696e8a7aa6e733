// Package layout derives the board's visual geometry from the synchronized
// state: category label anchors, constellation connection segments between
// nearby nodes, and the curved links pairing a category's active and
// completed labels. Everything here is a pure function of its input and is
// recomputed on every relevant state change, including mid-drag.
package layout

import (
	"sort"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/geom"
)

// Offsets baked into the label anchor math. The label sits above the
// visually topmost node of its subset, horizontally centered on the subset's
// mean x.
const (
	activeLabelOffsetX    = -80
	completedLabelOffsetX = -120
	labelClearance        = 100

	// A category-pair link attaches near the visual center of each label.
	linkAnchorDX = 80
	linkAnchorDY = 20
)

// Config carries the tunable geometry constants.
type Config struct {
	NodeDiameter        float64 // visual node size; positions are centers
	LabelGap            float64 // vertical gap between topmost node and label
	ConnectionThreshold float64 // centers closer than this get a segment
	DefaultColor        string  // fallback for category-pair links
}

// DefaultConfig returns the stock geometry.
func DefaultConfig() Config {
	return Config{
		NodeDiameter:        48,
		LabelGap:            10,
		ConnectionThreshold: 299,
		DefaultColor:        "#a855f7",
	}
}

// DragOverride substitutes a live drag position for one node so that
// dragging immediately perturbs clustering and connections, not just the
// dragged node itself. Center is the node's current center.
type DragOverride struct {
	TodoID int64
	Center geom.Point
}

// Input is the state slice the engine reads.
type Input struct {
	Todos      []domain.Todo
	Categories []domain.Category
	Drag       *DragOverride
	// ColorPreviews maps category id to a transient color override applied
	// before the server echoes a recolor.
	ColorPreviews map[int64]string
}

// Label is a category label anchor. Completed subsets get their own label,
// rendered as a synthetic "Completed" entry for the same category.
type Label struct {
	CategoryID int64
	Completed  bool
	Name       string
	Color      string // empty renders as the default gray
	Pos        geom.Point
}

// Segment is one constellation line between two nodes of the same subset.
type Segment struct {
	CategoryID int64
	Completed  bool // completed-subset segments render dashed
	FromID     int64
	ToID       int64
	From       geom.Point
	To         geom.Point
	Color      string
}

// CategoryLink is the curved connector joining a category's active and
// completed labels when both exist.
type CategoryLink struct {
	CategoryID int64
	From       geom.Point
	To         geom.Point
	Color      string
}

// Result is the full derived geometry for one state snapshot.
type Result struct {
	Labels   []Label
	Segments []Segment
	Links    []CategoryLink
}

type node struct {
	id     int64
	center geom.Point
}

// Compute derives all layout geometry. Only todos with a category
// participate; a category with zero members produces no label. Output slices
// are ordered by category id (active before completed) and node id, so equal
// inputs yield equal results.
func Compute(cfg Config, in Input) Result {
	groups := groupByCategory(in)

	catIDs := make([]int64, 0, len(groups))
	for id := range groups {
		catIDs = append(catIDs, id)
	}
	sort.Slice(catIDs, func(i, j int) bool { return catIDs[i] < catIDs[j] })

	categories := make(map[int64]domain.Category, len(in.Categories))
	for _, c := range in.Categories {
		categories[c.ID] = c
	}

	var res Result
	for _, catID := range catIDs {
		cat, ok := categories[catID]
		if !ok {
			// Todo references a category the snapshot does not carry;
			// nothing to label or connect.
			continue
		}
		g := groups[catID]
		color := effectiveColor(cat, in.ColorPreviews)

		var activeLabel, completedLabel *geom.Point
		if p, ok := labelAnchor(cfg, g.active, activeLabelOffsetX); ok {
			activeLabel = &p
			res.Labels = append(res.Labels, Label{
				CategoryID: catID,
				Name:       cat.Name,
				Color:      color,
				Pos:        p,
			})
		}
		if p, ok := labelAnchor(cfg, g.completed, completedLabelOffsetX); ok {
			completedLabel = &p
			res.Labels = append(res.Labels, Label{
				CategoryID: catID,
				Completed:  true,
				Name:       "Completed",
				Color:      color,
				Pos:        p,
			})
		}

		// Segments need a resolved color; an uncolored category draws no
		// constellation. Active and completed subsets never mix.
		if color != "" {
			res.Segments = append(res.Segments, segments(cfg, catID, false, g.active, color)...)
			res.Segments = append(res.Segments, segments(cfg, catID, true, g.completed, color)...)
		}

		if activeLabel != nil && completedLabel != nil {
			linkColor := color
			if linkColor == "" {
				linkColor = cfg.DefaultColor
			}
			res.Links = append(res.Links, CategoryLink{
				CategoryID: catID,
				From:       geom.Point{X: activeLabel.X + linkAnchorDX, Y: activeLabel.Y + linkAnchorDY},
				To:         geom.Point{X: completedLabel.X + linkAnchorDX, Y: completedLabel.Y + linkAnchorDY},
				Color:      linkColor,
			})
		}
	}

	return res
}

type group struct {
	active    []node
	completed []node
}

// groupByCategory splits categorized todos into per-category active and
// completed subsets, substituting the live drag position when present.
func groupByCategory(in Input) map[int64]group {
	groups := make(map[int64]group)
	for _, t := range in.Todos {
		if t.CategoryID == nil {
			continue
		}
		center := geom.Point{X: t.PositionX, Y: t.PositionY}
		if in.Drag != nil && in.Drag.TodoID == t.ID {
			center = in.Drag.Center
		}
		g := groups[*t.CategoryID]
		n := node{id: t.ID, center: center}
		if t.IsCompleted {
			g.completed = append(g.completed, n)
		} else {
			g.active = append(g.active, n)
		}
		groups[*t.CategoryID] = g
	}
	for _, g := range groups {
		sort.Slice(g.active, func(i, j int) bool { return g.active[i].id < g.active[j].id })
		sort.Slice(g.completed, func(i, j int) bool { return g.completed[i].id < g.completed[j].id })
	}
	return groups
}

// labelAnchor places a label above the subset's topmost node (minimum center
// y), horizontally centered on the subset's mean x with a fixed offset.
func labelAnchor(cfg Config, nodes []node, offsetX float64) (geom.Point, bool) {
	if len(nodes) == 0 {
		return geom.Point{}, false
	}
	minY := nodes[0].center.Y
	sumX := 0.0
	for _, n := range nodes {
		if n.center.Y < minY {
			minY = n.center.Y
		}
		sumX += n.center.X
	}
	meanX := sumX / float64(len(nodes))
	return geom.Point{
		X: meanX + offsetX + cfg.NodeDiameter*0.8,
		Y: minY - cfg.NodeDiameter/2 - cfg.LabelGap - labelClearance,
	}, true
}

// segments draws a line between every pair of subset nodes whose
// center-to-center distance is below the threshold.
func segments(cfg Config, catID int64, completed bool, nodes []node, color string) []Segment {
	if len(nodes) < 2 {
		return nil
	}
	var out []Segment
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			if a.center.Distance(b.center) >= cfg.ConnectionThreshold {
				continue
			}
			out = append(out, Segment{
				CategoryID: catID,
				Completed:  completed,
				FromID:     a.id,
				ToID:       b.id,
				From:       a.center,
				To:         b.center,
				Color:      color,
			})
		}
	}
	return out
}

func effectiveColor(cat domain.Category, previews map[int64]string) string {
	if c, ok := previews[cat.ID]; ok && c != "" {
		return c
	}
	if cat.Color != nil {
		return *cat.Color
	}
	return ""
}
