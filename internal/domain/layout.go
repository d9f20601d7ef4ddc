package domain

import "fmt"

// Layout holds the column widths shared by every output prefix in a run
type Layout struct {
	IDWidth    int
	LabelWidth int
}

// Prefix formats the worker prefix, e.g. "[02] default  | ".
// All prefixes rendered with the same Layout have equal width as long as
// ids and labels fit the layout.
func (l Layout) Prefix(id int, label string) string {
	return fmt.Sprintf("[%0*d] %-*s | ", l.IDWidth, id, l.LabelWidth, label)
}
