package audit

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pyvec/pythoncz/internal/geo"
	"github.com/pyvec/pythoncz/internal/model"
)

// Lines per posting in the list view (company + location + blank separator).
const entryItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	entryTitleStyle = lipgloss.NewStyle().
			Bold(true)

	entrySubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// DetailFunc downloads a posting's detail page and returns the postings it
// refines into.
type DetailFunc func(ctx context.Context, p model.Posting) ([]model.Posting, error)

type detailFetchedMsg struct {
	postings []model.Posting
	err      error
}

type geocodedMsg struct {
	description string
	err         error
}

type auditModel struct {
	all           []Entry
	kept          []Entry
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	view           viewState
	detailEntry    Entry
	detailViewport viewport.Model
	detailFn       DetailFunc
	detailLoading  bool
	detailError    string
	refined        []model.Posting

	geocode        geo.GeocodeFunc
	geocodeLoading bool
	geocodeError   string
	geocoded       string

	wantQuit bool
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case detailFetchedMsg:
		m.detailLoading = false
		if msg.err != nil {
			m.detailError = fmt.Sprintf("failed to load detail page: %v", msg.err)
		} else {
			m.detailError = ""
			m.refined = msg.postings
		}
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case geocodedMsg:
		m.geocodeLoading = false
		if msg.err != nil {
			m.geocodeError = fmt.Sprintf("geocoding failed: %v", msg.err)
		} else {
			m.geocodeError = ""
			m.geocoded = msg.description
		}
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detailEntry.Posting.URL)
		return m, nil
	case "d":
		if m.detailFn != nil && !m.detailLoading && m.refined == nil {
			m.detailLoading = true
			m.detailError = ""
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.fetchDetailCmd(m.detailEntry.Posting)
		}
		return m, nil
	case "g":
		if m.canGeocode() {
			m.geocodeLoading = true
			m.geocodeError = ""
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.geocodeCmd(m.detailEntry.Posting.LocationRaw)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m auditModel) canGeocode() bool {
	return m.geocode != nil && !m.geocodeLoading && m.geocoded == "" &&
		m.detailEntry.Verdict == VerdictNeedsGeocode
}

func (m auditModel) fetchDetailCmd(p model.Posting) tea.Cmd {
	detailFn := m.detailFn
	return func() tea.Msg {
		postings, err := detailFn(context.Background(), p)
		return detailFetchedMsg{postings: postings, err: err}
	}
}

func (m auditModel) geocodeCmd(text string) tea.Cmd {
	geocode := m.geocode
	return func() tea.Msg {
		description, err := geocode(context.Background(), text)
		return geocodedMsg{description: description, err: err}
	}
}

func (m *auditModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.all)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.kept)-1, 0))
	}
}

func (m *auditModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * entryItemHeight
	cursorBottom := cursorTop + entryItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m auditModel) openDetailView() (tea.Model, tea.Cmd) {
	entries := m.activeEntries()
	if len(entries) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailEntry = entries[m.activeCursor()]
	m.detailError = ""
	m.refined = nil
	m.geocodeError = ""
	m.geocoded = ""
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *auditModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *auditModel) recalcContent() {
	m.leftViewport.SetContent(renderEntries(m.all, m.leftCursor, m.activePane == 0, rawSubtitle))
	m.rightViewport.SetContent(renderEntries(m.kept, m.rightCursor, m.activePane == 1, classifiedSubtitle))
}

func (m auditModel) activeEntries() []Entry {
	if m.activePane == 0 {
		return m.all
	}
	return m.kept
}

func (m auditModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m auditModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" Raw Postings (%d)", len(m.all))
	rightHeader := fmt.Sprintf(" Classified (%d)", len(m.kept))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	counts := countVerdicts(m.all)
	statusText := fmt.Sprintf(" %d total | %d kept | %d to geocode | %d out of scope | %d agency    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.all), counts[VerdictKept], counts[VerdictNeedsGeocode], counts[VerdictOutOfScope], counts[VerdictAgency])
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m auditModel) viewDetail() string {
	title := detailTitleStyle.Render("Posting Details")
	if m.detailLoading || m.geocodeLoading {
		title += "  (loading...)"
	}

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	keys := []string{"o open URL"}
	if m.detailFn != nil && m.refined == nil {
		keys = append(keys, "d detail page")
	}
	if m.canGeocode() {
		keys = append(keys, "g geocode")
	}
	keys = append(keys, "esc/backspace back", "↑/↓ scroll", "q quit")
	statusBar := statusBarStyle.Width(m.width).Render(" " + strings.Join(keys, "  "))

	return title + "\n" + content + "\n" + statusBar
}

func (m auditModel) renderDetail() string {
	p := m.detailEntry.Posting
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Company", p.CompanyName)
	addField("Company ID", p.CompanyID)
	addField("Company URL", p.CompanyURL)
	addField("Feed", p.Feed.Name)
	b.WriteByte('\n')
	addField("Raw Location", p.LocationRaw)
	addField("Classified", describeLocation(p.Location))
	addField("Verdict", string(m.detailEntry.Verdict))
	b.WriteByte('\n')
	addField("Job URL", p.URL)

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return dividerStyle.Render(label + fill)
	}

	if m.geocoded != "" {
		b.WriteByte('\n')
		b.WriteString(divider("── Geocoding ") + "\n\n")
		addField("Description", m.geocoded)
		addField("Resolved", describeLocation(geo.Finish(m.geocoded)))
	} else if m.geocodeLoading {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  geocoding...") + "\n")
	}

	if m.refined != nil {
		b.WriteByte('\n')
		b.WriteString(divider("── Detail Page ") + "\n\n")
		for _, r := range m.refined {
			loc := describeLocation(geo.Parse(r.LocationRaw))
			b.WriteString(detailValueStyle.Render(wordWrap(fmt.Sprintf("  • %s → %s", r.LocationRaw, loc), wrapWidth)) + "\n")
		}
	} else if m.detailLoading {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  loading detail page...") + "\n")
	}

	for _, e := range []string{m.detailError, m.geocodeError} {
		if e != "" {
			b.WriteByte('\n')
			b.WriteString(errorStyle.Render("⚠ "+e) + "\n")
		}
	}

	return b.String()
}

func describeLocation(loc model.Location) string {
	switch loc {
	case model.LocationUnset, model.LocationOutOfScope:
		return loc.String()
	}
	label := geo.LabelOf(loc)
	return fmt.Sprintf("%s (%s / %s)", loc, label.CS, label.EN)
}

func rawSubtitle(e Entry) string {
	return e.Posting.LocationRaw
}

func classifiedSubtitle(e Entry) string {
	return fmt.Sprintf("%s · %s", geo.LabelOf(e.Posting.Location).EN, e.Posting.LocationRaw)
}

func renderEntries(entries []Entry, cursor int, isActive bool, subtitle func(Entry) string) string {
	if len(entries) == 0 {
		return "  (no postings)"
	}

	var b strings.Builder
	for i, e := range entries {
		isSelected := isActive && i == cursor

		titleSt := entryTitleStyle
		subtitleSt := entrySubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(e.Posting.CompanyName))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(subtitle(e)))
		b.WriteByte('\n')

		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func countVerdicts(entries []Entry) map[Verdict]int {
	counts := make(map[Verdict]int)
	for _, e := range entries {
		counts[e.Verdict]++
	}
	return counts
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunAuditTUI launches the split-pane classification audit. detailFn and
// geocode may be nil, which disables the matching keys in the detail view.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the picker.
func RunAuditTUI(all, kept []Entry, detailFn DetailFunc, geocode geo.GeocodeFunc) (bool, error) {
	m := auditModel{
		all:      all,
		kept:     kept,
		detailFn: detailFn,
		geocode:  geocode,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(auditModel)
	return final.wantQuit, nil
}
