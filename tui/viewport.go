// viewport.go is the scrollable, word-wrapping text area shared by the
// chat and schema views.
package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Viewport shows a window of wrapped lines. It follows the bottom of the
// content until the user scrolls up, so streamed text stays visible.
// With wrapping off, lines are cut at the width and scroll horizontally;
// only unstyled content should be shown that way.
type Viewport struct {
	width   int
	height  int
	lines   []string // wrapped to width
	source  []string // as given
	scrollY int
	scrollX int
	follow  bool
	noWrap  bool
}

func NewViewport(width, height int) *Viewport {
	return &Viewport{width: width, height: height, follow: true}
}

// SetWrap turns word wrapping on or off.
func (v *Viewport) SetWrap(wrap bool) {
	v.noWrap = !wrap
	v.scrollX = 0
	v.rewrap()
}

// ToggleWrap flips word wrapping.
func (v *Viewport) ToggleWrap() {
	v.SetWrap(v.noWrap)
}

func (v *Viewport) ScrollLeft(n int) {
	v.scrollX = max(v.scrollX-n, 0)
}

func (v *Viewport) ScrollRight(n int) {
	if v.noWrap {
		v.scrollX += n
	}
}

// SetContentLines replaces the content. Styled lines are wrapped by
// display width, so ANSI sequences are never cut.
func (v *Viewport) SetContentLines(lines []string) {
	v.source = lines
	v.rewrap()
}

func (v *Viewport) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.rewrap()
}

func (v *Viewport) rewrap() {
	v.lines = v.lines[:0]
	for _, line := range v.source {
		if v.noWrap || v.width <= 0 || lipgloss.Width(line) <= v.width {
			v.lines = append(v.lines, line)
			continue
		}
		wrapped := lipgloss.NewStyle().Width(v.width).Render(line)
		v.lines = append(v.lines, strings.Split(wrapped, "\n")...)
	}
	if v.follow {
		v.scrollY = v.maxScrollY()
	}
	v.clampScroll()
}

func (v *Viewport) ScrollUp(n int) {
	v.scrollY -= n
	v.clampScroll()
	v.follow = v.scrollY >= v.maxScrollY()
}

func (v *Viewport) ScrollDown(n int) {
	v.scrollY += n
	v.clampScroll()
	v.follow = v.scrollY >= v.maxScrollY()
}

func (v *Viewport) PageUp()   { v.ScrollUp(v.height) }
func (v *Viewport) PageDown() { v.ScrollDown(v.height) }

func (v *Viewport) Home() {
	v.scrollY = 0
	v.follow = v.maxScrollY() == 0
}

// End scrolls to the bottom and resumes following new content.
func (v *Viewport) End() {
	v.scrollY = v.maxScrollY()
	v.follow = true
}

// Render returns exactly height lines plus a scroll indicator when the
// content overflows.
func (v *Viewport) Render() string {
	end := v.scrollY + v.height
	if end > len(v.lines) {
		end = len(v.lines)
	}
	visible := append([]string(nil), v.lines[v.scrollY:end]...)
	if v.noWrap {
		for i, line := range visible {
			visible[i] = v.clip(line)
		}
	}
	for len(visible) < v.height {
		visible = append(visible, "")
	}
	out := strings.Join(visible, "\n")
	if ind := v.scrollIndicator(); ind != "" {
		out += "\n" + ind
	}
	return out
}

// clip applies the horizontal offset and width to a plain line.
func (v *Viewport) clip(line string) string {
	r := []rune(line)
	if v.scrollX >= len(r) {
		return ""
	}
	r = r[v.scrollX:]
	if v.width > 0 && len(r) > v.width {
		r = r[:v.width]
	}
	return string(r)
}

func (v *Viewport) clampScroll() {
	if max := v.maxScrollY(); v.scrollY > max {
		v.scrollY = max
	}
	if v.scrollY < 0 {
		v.scrollY = 0
	}
}

func (v *Viewport) maxScrollY() int {
	max := len(v.lines) - v.height
	if max < 0 {
		return 0
	}
	return max
}

func (v *Viewport) scrollIndicator() string {
	total := len(v.lines)
	if total <= v.height {
		return ""
	}
	last := min(v.scrollY+v.height, total)
	label := " " + strconv.Itoa(v.scrollY+1) + "-" + strconv.Itoa(last) + "/" + strconv.Itoa(total)
	rule := v.width - lipgloss.Width(label)
	if rule < 0 {
		rule = 0
	}
	return StyleDimmed.Render(strings.Repeat("─", rule) + label)
}
