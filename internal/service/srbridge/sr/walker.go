package sr

import (
	"fmt"
	"strings"
)

// Line is one rendered content item. Indent 0 marks a heading; downstream
// consumers rely on indentation alone to tell headings from body lines.
type Line struct {
	Text   string
	Indent int

	// ObservationDateTime is carried through from the source node so the
	// FHIR composer can prefer an item-level timestamp over the study one.
	ObservationDateTime string
}

// Heading reports whether the line sits at the top level of the report.
func (l Line) Heading() bool { return l.Indent == 0 }

// Walk flattens an SR content tree depth-first, pre-order, producing exactly
// one line per node. It never fails: unknown value types degrade to a
// placeholder line and missing sub-fields render as empty strings.
func Walk(nodes []*Node) []Line {
	var out []Line
	for _, n := range nodes {
		walkNode(n, 0, &out)
	}
	return out
}

func walkNode(n *Node, level int, out *[]Line) {
	if n == nil {
		return
	}
	*out = append(*out, Line{
		Text:                renderNode(n),
		Indent:              level,
		ObservationDateTime: n.ObservationDateTime,
	})
	for _, c := range n.Children {
		walkNode(c, level+1, out)
	}
}

func renderNode(n *Node) string {
	name := n.Name()

	switch n.ValueType {
	case Container:
		if name != "" {
			return name
		}
		return "[Unnamed CONTAINER]"
	case Image:
		// Empty marker line; composers turn it into a "DXm image"
		// pseudo-finding when it sits under the Image Library heading.
		return ""
	case Code:
		return fmt.Sprintf("%s = %s (%s, %s)", name, n.Concept.Meaning, n.Concept.Value, n.Concept.Scheme)
	case Num:
		return fmt.Sprintf("%s = %s %s", name, n.NumericValue, n.Unit.Meaning)
	case Text:
		// Raw interpolation: quotes, backslashes and newlines in the value
		// pass through untouched.
		return fmt.Sprintf("%s = \"%s\"", name, n.Text)
	case Date:
		return fmt.Sprintf("%s = %s", name, n.Date)
	case Time:
		return fmt.Sprintf("%s = %s", name, n.Time)
	default:
		return fmt.Sprintf("%s = [Unknown or unhandled value type: %s]", name, n.ValueType)
	}
}

// Report joins rendered lines into the plain-text report form, two spaces
// per indent level.
func Report(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", l.Indent))
		b.WriteString(l.Text)
	}
	return b.String()
}
