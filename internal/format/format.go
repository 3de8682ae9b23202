// Package format renders report headers and items in text or wiki style.
package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Output styles.
const (
	Text = "text"
	Wiki = "wiki"
)

// Mode carries the display flags every renderer needs.
type Mode struct {
	Format  string
	Width   int
	Brief   bool
	Verbose bool
}

// Header emits a report section header: an underlined title in text mode,
// a level-one heading in wiki mode.
func Header(w io.Writer, title string, m Mode) {
	if m.Format == Wiki {
		fmt.Fprintf(w, "= %s =\n", title)
		return
	}
	fmt.Fprintf(w, "\n%s\n %s\n", strings.Repeat("~", m.Width), title)
}

// Item emits a single bullet line. In text mode the line is wrapped to the
// configured width with four spaces of indent per nesting level; in wiki
// mode the nesting level becomes the bullet depth.
func Item(w io.Writer, text string, level int, m Mode) {
	if m.Format == Wiki {
		fmt.Fprintf(w, "%s %s\n", strings.Repeat("*", level+1), text)
		return
	}
	indent := strings.Repeat(" ", level*4)
	first := indent + "* "
	rest := indent + "  "
	for i, line := range wrap(text, m.Width-len(first)) {
		if i == 0 {
			fmt.Fprintf(w, "%s%s\n", first, line)
		} else {
			fmt.Fprintf(w, "%s%s\n", rest, line)
		}
	}
}

// wrap greedily breaks text into lines of at most width display cells.
// Words longer than the width get a line of their own.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	if width < 1 {
		width = 1
	}

	var lines []string
	current := words[0]
	used := runewidth.StringWidth(words[0])
	for _, word := range words[1:] {
		w := runewidth.StringWidth(word)
		if used+1+w > width {
			lines = append(lines, current)
			current = word
			used = w
			continue
		}
		current += " " + word
		used += 1 + w
	}
	return append(lines, current)
}
