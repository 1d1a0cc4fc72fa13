package domain

// Position says where a moved node lands relative to its target.
type Position string

// Child positions place the node under the target.
const (
	FirstChild  Position = "first-child"
	LastChild   Position = "last-child"
	SortedChild Position = "sorted-child"
)

// Sibling positions place the node next to the target.
const (
	FirstSibling  Position = "first-sibling"
	LeftSibling   Position = "left"
	RightSibling  Position = "right"
	LastSibling   Position = "last-sibling"
	SortedSibling Position = "sorted-sibling"
)

// IsChild reports whether p places the node under the target.
func (p Position) IsChild() bool {
	switch p {
	case FirstChild, LastChild, SortedChild:
		return true
	}
	return false
}

// IsSibling reports whether p places the node next to the target.
func (p Position) IsSibling() bool {
	switch p {
	case FirstSibling, LeftSibling, RightSibling, LastSibling, SortedSibling:
		return true
	}
	return false
}

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	return p.IsChild() || p.IsSibling()
}
