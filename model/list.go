package model

// ListItemType classifies one list item's marker.
type ListItemType int

const (
	ListItemPlain ListItemType = iota
	ListItemOrdered
	ListItemUnordered
	ListItemDefinition
)

func (t ListItemType) String() string {
	switch t {
	case ListItemOrdered:
		return "ordered"
	case ListItemUnordered:
		return "unordered"
	case ListItemDefinition:
		return "definition"
	default:
		return "plain"
	}
}

// ListItem represents one item in a parsed list hierarchy.
type ListItem struct {
	// Content is the item text without its marker.
	Content string `json:"content"`

	// Level is the nesting level, 0 for top-level items.
	Level int `json:"level"`

	// ItemType classifies the item's marker.
	ItemType ListItemType `json:"item_type"`

	// Number is the ordinal for ordered items (1 for "1.", "a.", "i.").
	// Zero for unordered and plain items.
	Number int `json:"number,omitempty"`

	// Children holds nested items.
	Children []*ListItem `json:"children,omitempty"`

	// Metadata carries marker details (marker text, indent width).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DescendantCount returns the number of items nested under this one.
func (li *ListItem) DescendantCount() int {
	if li == nil {
		return 0
	}
	n := len(li.Children)
	for _, c := range li.Children {
		n += c.DescendantCount()
	}
	return n
}

// ListStructure is the parsed shape of a list element.
type ListStructure struct {
	// Items holds the top-level items; nested items are in Children.
	Items []*ListItem `json:"items"`

	// ListType is "ordered", "unordered" or "definition" when homogeneous,
	// else "mixed".
	ListType string `json:"list_type"`

	// MaxDepth is the deepest nesting level present (0 for a flat list).
	MaxDepth int `json:"max_depth"`

	// TotalItems counts all items including nested ones.
	TotalItems int `json:"total_items"`

	// HasMixedContent is true when item types differ within the list.
	HasMixedContent bool `json:"has_mixed_content"`
}

// Flatten returns all items in document order.
func (l *ListStructure) Flatten() []*ListItem {
	if l == nil {
		return nil
	}
	var out []*ListItem
	var walk func(items []*ListItem)
	walk = func(items []*ListItem) {
		for _, it := range items {
			out = append(out, it)
			walk(it.Children)
		}
	}
	walk(l.Items)
	return out
}
