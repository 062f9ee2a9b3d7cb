// Command easeltui hosts the board in the terminal. The engine composites
// at a fixed logical size, the image is downsampled to the visible cell
// grid and drawn as colored half blocks, and terminal mouse events drive
// the same interaction machine as the native host.
package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xdraw "golang.org/x/image/draw"

	"github.com/easel2d/easel/board"
	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/input"
	"github.com/easel2d/easel/engine/scene"
	"github.com/easel2d/easel/engine/surface"
)

// Logical board resolution. The terminal only changes how coarsely it is
// shown, not where objects live.
const (
	boardW = 960
	boardH = 540

	tickEvery = 33 * time.Millisecond
	docPath   = "easel-board.json"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4285f4")).Padding(0, 1)
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

type keyMap struct {
	Note    key.Binding
	Guide   key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Save    key.Binding
	Open    key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Reset   key.Binding
	Pan     key.Binding
	Clear   key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Note, k.Edit, k.Delete, k.Save, k.Pan, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Note, k.Guide, k.Edit, k.Delete},
		{k.Save, k.Open, k.Clear, k.Quit},
		{k.ZoomIn, k.ZoomOut, k.Reset, k.Pan},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Note:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "note")),
		Guide:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "frame")),
		Edit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit text")),
		Delete:  key.NewBinding(key.WithKeys("d", "backspace"), key.WithHelp("d", "delete")),
		Save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		Reset:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset view")),
		Pan:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle pan")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type tickMsg time.Time

type model struct {
	board *board.Board
	keys  keyMap
	help  help.Model

	cols, rows int // visible cell grid for the image
	ready      bool

	scaled  *image.RGBA // downsample target, rows*2 pixels tall
	buttons input.Buttons
	panHeld bool
	typing  bool
	status  string
}

func newModel() (model, error) {
	b, err := board.New(board.Config{Width: boardW, Height: boardH, Grid: true})
	if err != nil {
		return model{}, err
	}
	unit := b.Store.GridUnit()
	b.Store.AddText(unit*2, unit*4, "easel tui")
	b.Store.AddText(unit*2, unit*7, "click and drag with the mouse;\nkeys are listed in the help bar")
	b.Store.AddGuide(unit*22, unit*3, unit*14, unit*9)

	m := model{
		board: b,
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
	m.subscribe()
	return m, nil
}

// subscribe turns gesture events into document edits, the same bindings the
// native host uses.
func (m *model) subscribe() {
	st := m.board.Store
	m.board.Canvas.Events().Subscribe(func(ev core.Event) {
		switch e := ev.(type) {
		case core.DoubleClick:
			o := st.AddText(e.World.X, e.World.Y, "")
			st.SetSelection([]string{o.ID})
		case core.ContextMenu:
			if e.ObjectID != "" {
				st.BringToFront(e.ObjectID)
			}
		}
	})
}

func (m model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.board.Canvas.Tick(time.Time(msg))
		return m, tick()

	case tea.WindowSizeMsg:
		m.cols = max(msg.Width-2, 8)  // frame border
		m.rows = max(msg.Height-5, 4) // title, border, status, help
		m.scaled = image.NewRGBA(image.Rect(0, 0, m.cols, m.rows*2))
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg), nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m model) updateKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.typing {
		switch k.String() {
		case "esc", "enter":
			m.typing = false
			m.status = ""
		case "backspace":
			m.editSelection(func(s string) string {
				if s == "" {
					return s
				}
				r := []rune(s)
				return string(r[:len(r)-1])
			})
		default:
			if k.Type == tea.KeyRunes || k.Type == tea.KeySpace {
				m.editSelection(func(s string) string { return s + k.String() })
			}
		}
		return m, nil
	}

	st := m.board.Store
	cv := m.board.Canvas
	switch {
	case key.Matches(k, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(k, m.keys.Note):
		c := cv.ScreenToWorld(geom.Pt(boardW/2, boardH/2))
		o := st.AddText(c.X, c.Y, "")
		st.SetSelection([]string{o.ID})
		m.typing = true
		m.status = "typing"

	case key.Matches(k, m.keys.Guide):
		unit := st.GridUnit()
		c := cv.ScreenToWorld(geom.Pt(boardW/2, boardH/2))
		g := st.AddGuide(c.X-7*unit, c.Y-4*unit, 14*unit, 8*unit)
		st.SetSelection([]string{g.ID})

	case key.Matches(k, m.keys.Edit):
		if _, ok := m.singleTextSelected(); ok {
			m.typing = true
			m.status = "typing"
		}

	case key.Matches(k, m.keys.Delete):
		st.RemoveSelected()

	case key.Matches(k, m.keys.Save):
		if err := m.board.SaveFile(docPath); err != nil {
			m.status = err.Error()
		} else {
			m.status = "saved " + docPath
		}

	case key.Matches(k, m.keys.Open):
		if err := m.board.LoadFile(docPath); err != nil {
			m.status = err.Error()
		} else {
			m.status = "opened " + docPath
		}

	case key.Matches(k, m.keys.ZoomIn):
		cv.ZoomBy(1.2, geom.Pt(boardW/2, boardH/2))

	case key.Matches(k, m.keys.ZoomOut):
		cv.ZoomBy(1/1.2, geom.Pt(boardW/2, boardH/2))

	case key.Matches(k, m.keys.Reset):
		cv.ZoomToLevel(1, geom.Pt(0, 0))
		off := cv.Camera().Offset()
		cv.PanBy(-off.X, -off.Y)

	case key.Matches(k, m.keys.Pan):
		// Terminals report no key releases, so space latches instead.
		m.panHeld = !m.panHeld
		cv.Key(input.KeySpace, m.panHeld)
		if m.panHeld {
			m.status = "pan"
		} else {
			m.status = ""
		}

	case key.Matches(k, m.keys.Clear):
		st.SetSelection(nil)
		cv.StopMomentum()
		m.status = ""
	}
	return m, nil
}

func (m model) updateMouse(msg tea.MouseMsg) model {
	if !m.ready {
		return m
	}
	pt := m.cellToScreen(msg.X, msg.Y)
	mods := teaMods(msg)

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown,
		tea.MouseButtonWheelLeft, tea.MouseButtonWheelRight:
		if msg.Action == tea.MouseActionPress {
			m.wheel(msg.Button, pt, mods)
		}
		return m
	}

	switch msg.Action {
	case tea.MouseActionPress:
		m.buttons |= teaButton(msg.Button)
		m.board.Canvas.PointerDown(m.pointer(pt, mods))
	case tea.MouseActionRelease:
		m.buttons &^= teaButton(msg.Button)
		m.board.Canvas.PointerUp(m.pointer(pt, mods))
	case tea.MouseActionMotion:
		m.board.Canvas.PointerMove(m.pointer(pt, mods))
	}
	return m
}

func (m model) wheel(b tea.MouseButton, at geom.Point, mods input.Mods) {
	cv := m.board.Canvas
	if mods&input.ModCtrl != 0 {
		if b == tea.MouseButtonWheelUp {
			cv.ZoomBy(1.15, at)
		} else if b == tea.MouseButtonWheelDown {
			cv.ZoomBy(1/1.15, at)
		}
		return
	}
	const step = 32
	switch b {
	case tea.MouseButtonWheelUp:
		cv.PanBy(0, step)
	case tea.MouseButtonWheelDown:
		cv.PanBy(0, -step)
	case tea.MouseButtonWheelLeft:
		cv.PanBy(step, 0)
	case tea.MouseButtonWheelRight:
		cv.PanBy(-step, 0)
	}
}

func (m model) pointer(at geom.Point, mods input.Mods) input.Pointer {
	return input.Pointer{
		ID:      1,
		X:       at.X,
		Y:       at.Y,
		Buttons: m.buttons,
		Mods:    mods,
		Type:    input.PointerMouse,
		Primary: true,
		Time:    time.Now(),
	}
}

// cellToScreen maps a terminal cell to board pixels. The image block sits
// inside the frame border, one row below the title.
func (m model) cellToScreen(x, y int) geom.Point {
	cx := float64(x-1) + 0.5
	cy := float64(y-2) + 0.5
	return geom.Pt(cx*boardW/float64(m.cols), cy*boardH/float64(m.rows))
}

func teaButton(b tea.MouseButton) input.Buttons {
	switch b {
	case tea.MouseButtonLeft:
		return input.ButtonPrimary
	case tea.MouseButtonRight:
		return input.ButtonSecondary
	case tea.MouseButtonMiddle:
		return input.ButtonMiddle
	default:
		return 0
	}
}

func teaMods(msg tea.MouseMsg) input.Mods {
	var mods input.Mods
	if msg.Shift {
		mods |= input.ModShift
	}
	if msg.Ctrl {
		mods |= input.ModCtrl
	}
	if msg.Alt {
		mods |= input.ModAlt
	}
	return mods
}

func (m *model) editSelection(edit func(string) string) {
	id, ok := m.singleTextSelected()
	if !ok {
		m.typing = false
		return
	}
	o, _ := m.board.Store.Object(id)
	m.board.Store.SetText(id, edit(o.Content))
}

func (m model) singleTextSelected() (string, bool) {
	sel := m.board.Store.Selection()
	if len(sel) != 1 {
		return "", false
	}
	o, ok := m.board.Store.Object(sel[0])
	if !ok || o.Kind != scene.KindText {
		return "", false
	}
	return o.ID, true
}

func (m model) View() string {
	if !m.ready {
		return "sizing terminal..."
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("easel"))
	sb.WriteByte('\n')
	sb.WriteString(frameStyle.Render(m.renderImage()))
	sb.WriteByte('\n')

	status := fmt.Sprintf("%d objects | %d selected | %.0f%%",
		m.board.Store.Len(), len(m.board.Store.Selection()),
		m.board.Canvas.Camera().Scale()*100)
	if m.status != "" {
		status += " | " + m.status
	}
	sb.WriteString(statusStyle.Render(status))
	sb.WriteByte('\n')
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// renderImage downsamples the composited surface to the cell grid and
// encodes two vertical pixels per cell with the upper-half block.
func (m model) renderImage() string {
	src, ok := m.board.Canvas.Handle().(*surface.ImageSurface)
	if !ok {
		return ""
	}
	xdraw.ApproxBiLinear.Scale(m.scaled, m.scaled.Bounds(), src.RGBA(), src.RGBA().Bounds(), xdraw.Src, nil)

	var sb strings.Builder
	sb.Grow(m.cols * m.rows * 24)
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			top := m.scaled.RGBAAt(col, row*2)
			bot := m.scaled.RGBAAt(col, row*2+1)
			writeCell(&sb, top, bot)
		}
		sb.WriteString("\x1b[0m")
		if row < m.rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func writeCell(sb *strings.Builder, top, bot color.RGBA) {
	fmt.Fprintf(sb, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
		top.R, top.G, top.B, bot.R, bot.G, bot.B)
}

func main() {
	m, err := newModel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer m.board.Destroy()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
