package pipeline

import (
	"regexp"
	"strings"
)

// LineKind classifies a record produced by the line pass.
type LineKind int

// Line record kinds.
const (
	LineText      LineKind = iota // passthrough text
	LineListOpen                  // opening <ul> or <ol>
	LineListItem                  // <li> plus item content
	LineListClose                 // </li></ul> or </li></ol>
	LineTable                     // a complete rendered table
	LineRule                      // thematic break
)

// Line is one record of the intermediate representation built by the
// line pass. Records are joined with newlines before the inline rules run.
type Line struct {
	Kind  LineKind
	Level int    // nesting level for list items
	Tag   string // "ul" or "ol" for list records
	Text  string // item content, table markup or passthrough text

	// Opens holds nested list tags appended to this record when a deeper
	// list starts on the following line.
	Opens []string
}

// String renders the record as markup.
func (l Line) String() string {
	var s string
	switch l.Kind {
	case LineListOpen:
		s = "<" + l.Tag + ">"
	case LineListItem:
		s = "<li>" + l.Text
	case LineListClose:
		s = "</li></" + l.Tag + ">"
	case LineRule:
		s = "<hr>"
	default:
		s = l.Text
	}
	for _, tag := range l.Opens {
		s += "<" + tag + ">"
	}
	return s
}

var (
	// List item: indentation, bullet or ordinal marker, content
	listItemPattern = regexp.MustCompile(`^(\s*)([-*+]|\d+\.)\s+(.*)$`)

	// Thematic break on a line of its own
	thematicBreakPattern = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
)

// indentWidth is the number of leading whitespace characters per nesting level.
const indentWidth = 2

// StructureLines runs the line pass: list items are nested with a stack of
// open list types and consecutive pipe-delimited rows are folded into a
// table. Other lines pass through unchanged.
func StructureLines(lines []string) []Line {
	w := &lineWalker{out: make([]Line, 0, len(lines))}
	for _, line := range lines {
		w.walk(line)
	}
	w.flushTable()
	w.closeLists()
	return w.out
}

// JoinLines renders records and joins them with newlines.
func JoinLines(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}

// lineWalker holds the list stack and the pending table rows.
type lineWalker struct {
	out   []Line
	stack []string
	rows  []string
}

func (w *lineWalker) walk(line string) {
	if m := listItemPattern.FindStringSubmatch(line); m != nil {
		w.flushTable()
		w.listItem(len(m[1])/indentWidth, listTag(m[2]), m[3])
		return
	}

	if thematicBreakPattern.MatchString(line) {
		w.flushTable()
		w.closeLists()
		w.emit(Line{Kind: LineRule})
		return
	}

	if isTableRow(line) {
		w.closeLists()
		w.rows = append(w.rows, line)
		return
	}

	w.flushTable()
	w.closeLists()
	w.emit(Line{Kind: LineText, Text: line})
}

// listItem applies the nesting rules for one list item at the given level.
func (w *lineWalker) listItem(level int, tag, content string) {
	if len(w.stack) == 0 {
		w.openList(tag)
	}

	// Shallower than the current depth: close inner lists.
	for len(w.stack)-1 > level {
		w.emit(Line{Kind: LineListClose, Tag: w.pop()})
	}

	// A type change at the top level ends the list and starts a new one.
	if level == 0 && w.top() != tag {
		w.closeLists()
		w.openList(tag)
	}

	// Deeper than the current depth: open lists on the previous record.
	for len(w.stack)-1 < level {
		w.appendOpen(tag)
		w.stack = append(w.stack, tag)
	}

	// A nested type change reopens the current level with the new type.
	if w.top() != tag {
		w.appendOpen(tag)
		w.stack[len(w.stack)-1] = tag
	}

	w.emit(Line{Kind: LineListItem, Level: level, Tag: tag, Text: content})
}

func (w *lineWalker) openList(tag string) {
	w.stack = append(w.stack, tag)
	w.emit(Line{Kind: LineListOpen, Tag: tag})
}

// closeLists unwinds every open list.
func (w *lineWalker) closeLists() {
	for len(w.stack) > 0 {
		w.emit(Line{Kind: LineListClose, Tag: w.pop()})
	}
}

func (w *lineWalker) appendOpen(tag string) {
	last := &w.out[len(w.out)-1]
	last.Opens = append(last.Opens, tag)
}

func (w *lineWalker) top() string {
	return w.stack[len(w.stack)-1]
}

func (w *lineWalker) pop() string {
	tag := w.top()
	w.stack = w.stack[:len(w.stack)-1]
	return tag
}

func (w *lineWalker) emit(l Line) {
	w.out = append(w.out, l)
}

// flushTable renders pending rows. Fewer than two rows pass through as text.
func (w *lineWalker) flushTable() {
	if len(w.rows) == 0 {
		return
	}
	if len(w.rows) < 2 {
		for _, row := range w.rows {
			w.emit(Line{Kind: LineText, Text: row})
		}
	} else {
		w.emit(Line{Kind: LineTable, Text: renderTable(w.rows)})
	}
	w.rows = w.rows[:0]
}

// listTag maps a list marker to its list element.
func listTag(marker string) string {
	switch marker {
	case "-", "*", "+":
		return "ul"
	}
	return "ol"
}

// isTableRow reports whether the trimmed line starts and ends with a pipe.
func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")
}

// renderTable renders accumulated rows as a single-line table. The first
// row becomes the header, the second row is discarded as the alignment
// divider without being validated, and ragged rows are kept as they are.
func renderTable(rows []string) string {
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, cell := range splitRow(rows[0]) {
		b.WriteString("<th>" + cell + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range rows[2:] {
		b.WriteString("<tr>")
		for _, cell := range splitRow(row) {
			b.WriteString("<td>" + cell + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// splitRow splits a row on pipes and drops the empty edge fragments.
func splitRow(row string) []string {
	parts := strings.Split(strings.TrimSpace(row), "|")
	if len(parts) < 2 {
		return nil
	}
	parts = parts[1 : len(parts)-1]
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
