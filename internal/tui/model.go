// Package tui is the terminal version of the reading-list page.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"readlist/internal/progress"
	"readlist/internal/sheet"
	"readlist/pkg/models"
)

// Service is the part of the progress controller the screen drives.
type Service interface {
	List(ctx context.Context) ([]models.Book, error)
	AddBook(ctx context.Context, title, author string, total int) (models.Book, error)
	Step(ctx context.Context, b models.Book, delta int) (models.Book, error)
	MarkDone(ctx context.Context, b models.Book) (models.Book, error)
	DeleteBook(ctx context.Context, b models.Book) error
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeConfirm
)

const (
	fieldTitle = iota
	fieldAuthor
	fieldTotal
)

type booksMsg struct {
	books []models.Book
	err   error
}

// actionMsg reports a finished mutation; the list is re-read after it.
type actionMsg struct {
	status string
	err    error
}

type Model struct {
	ctx context.Context
	svc Service

	books  []models.Book
	cursor int
	mode   mode

	inputs  []textinput.Model
	focus   int
	confirm confirmDialog
	bar     bar.Model

	status   string
	err      string
	loadErr  bool
	quitting bool
}

func New(ctx context.Context, svc Service) Model {
	return Model{
		ctx:    ctx,
		svc:    svc,
		inputs: newInputs(),
		bar:    bar.New(bar.WithDefaultGradient(), bar.WithWidth(30), bar.WithoutPercentage()),
	}
}

// Run starts the program full screen and blocks until the user quits.
func Run(ctx context.Context, svc Service) error {
	_, err := tea.NewProgram(New(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func newInputs() []textinput.Model {
	placeholders := []string{"Title", "Author", "Total pages"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		ti := textinput.New()
		ti.Placeholder = p
		ti.CharLimit = 200
		ti.Cursor.SetMode(cursor.CursorStatic)
		inputs[i] = ti
	}
	inputs[fieldTotal].CharLimit = 6
	return inputs
}

func (m Model) Init() tea.Cmd {
	return m.load
}

func (m Model) load() tea.Msg {
	books, err := m.svc.List(m.ctx)
	return booksMsg{books: books, err: err}
}

func (m Model) selected() (models.Book, bool) {
	if m.cursor < 0 || m.cursor >= len(m.books) {
		return models.Book{}, false
	}
	return m.books[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case booksMsg:
		if msg.err != nil {
			m.books = nil
			m.loadErr = true
			m.err = describe(msg.err)
			return m, nil
		}
		m.books = msg.books
		m.loadErr = false
		if m.cursor >= len(m.books) {
			m.cursor = max(len(m.books)-1, 0)
		}
		return m, nil

	case actionMsg:
		m.status = msg.status
		m.err = ""
		if msg.err != nil {
			m.status = ""
			m.err = describe(msg.err)
		}
		return m, m.load

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.books)-1 {
			m.cursor++
		}
	case "r":
		m.err, m.status = "", ""
		return m, m.load
	case "a":
		m.mode = modeAdd
		m.inputs = newInputs()
		m.focus = fieldTitle
		m.inputs[fieldTitle].Focus()
		m.err, m.status = "", ""
	case "left", "h", "-":
		return m.mutate(func(b models.Book) actionMsg {
			saved, err := m.svc.Step(m.ctx, b, -progress.StepSize)
			return actionMsg{status: fmt.Sprintf("%s: %d%%", saved.Title, saved.Progress), err: err}
		})
	case "right", "l", "+":
		return m.mutate(func(b models.Book) actionMsg {
			saved, err := m.svc.Step(m.ctx, b, progress.StepSize)
			return actionMsg{status: fmt.Sprintf("%s: %d%%", saved.Title, saved.Progress), err: err}
		})
	case "d":
		return m.mutate(func(b models.Book) actionMsg {
			saved, err := m.svc.MarkDone(m.ctx, b)
			return actionMsg{status: fmt.Sprintf("%s finished on %s", saved.Title, saved.Date), err: err}
		})
	case "x":
		b, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !b.IsDone() {
			m.err = fmt.Sprintf("%q: %v", b.Title, progress.ErrNotDone)
			return m, nil
		}
		m.mode = modeConfirm
		m.confirm = newConfirmDialog("Delete book", fmt.Sprintf("Remove %q from the sheet?", b.Title))
	}
	return m, nil
}

func (m Model) mutate(fn func(b models.Book) actionMsg) (tea.Model, tea.Cmd) {
	b, ok := m.selected()
	if !ok {
		return m, nil
	}
	return m, func() tea.Msg {
		msg := fn(b)
		if msg.err != nil {
			msg.err = fmt.Errorf("%q: %w", b.Title, msg.err)
		}
		return msg
	}
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.confirm.Update(msg) {
	case confirmYes:
		m.mode = modeList
		return m.mutate(func(b models.Book) actionMsg {
			err := m.svc.DeleteBook(m.ctx, b)
			return actionMsg{status: fmt.Sprintf("deleted %s", b.Title), err: err}
		})
	case confirmNo:
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		return m, nil
	case "tab", "down":
		m.setFocus((m.focus + 1) % len(m.inputs))
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
		return m, nil
	case "enter":
		if m.focus < fieldTotal {
			m.setFocus(m.focus + 1)
			return m, nil
		}
		return m.submitAdd()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m Model) submitAdd() (tea.Model, tea.Cmd) {
	title := m.inputs[fieldTitle].Value()
	author := m.inputs[fieldAuthor].Value()
	total, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldTotal].Value()))
	if err != nil {
		m.err = progress.ErrInvalidTotal.Error()
		return m, nil
	}

	m.mode = modeList
	return m, func() tea.Msg {
		saved, err := m.svc.AddBook(m.ctx, title, author, total)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "added " + saved.Title}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Reading list"))
	b.WriteString("\n")

	switch m.mode {
	case modeConfirm:
		b.WriteString(m.confirm.View())
		return b.String()
	case modeAdd:
		b.WriteString(m.addView())
		return b.String()
	}

	if !m.loadErr {
		if len(m.books) == 0 {
			b.WriteString(mutedStyle.Render("No books yet. Press a to add one."))
			b.WriteString("\n")
		}
		for i, book := range m.books {
			b.WriteString(m.bookLine(i, book))
			b.WriteString("\n")
		}
	}

	if m.err != "" {
		b.WriteString("\n" + errorStyle.Render(m.err) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + successStyle.Render(m.status) + "\n")
	}

	b.WriteString(helpStyle.Render(strings.Join([]string{
		formatKey("←/→", "-5/+5"),
		formatKey("d", "done"),
		formatKey("x", "delete"),
		formatKey("a", "add"),
		formatKey("r", "refresh"),
		formatKey("q", "quit"),
	}, " • ")))
	return b.String()
}

func (m Model) bookLine(i int, book models.Book) string {
	name := book.Title
	if book.Author != "" {
		name += " (" + book.Author + ")"
	}
	v := progress.NewView(book)
	line := fmt.Sprintf("%s %s %3d%%  %d/%d pages",
		name, m.bar.ViewAs(float64(book.Progress)/100), book.Progress, v.ReadPages, book.Total)
	if book.IsDone() {
		line += mutedStyle.Render("  finished " + book.Date)
	}

	if i == m.cursor {
		return selectedItemStyle.Render("▸ " + line)
	}
	return unselectedItemStyle.Render("  " + line)
}

func (m Model) addView() string {
	var b strings.Builder
	b.WriteString("Add a book\n\n")
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString("\n" + errorStyle.Render(m.err) + "\n")
	}
	b.WriteString(helpStyle.Render(formatKey("tab", "next field") + " • " + formatKey("enter", "save") + " • " + formatKey("esc", "cancel")))
	return boxStyle.Render(b.String())
}

// describe turns an error into the inline error line.
func describe(err error) string {
	if errors.Is(err, sheet.ErrUnavailable) {
		return "could not reach the sheet store: " + err.Error()
	}
	return err.Error()
}
