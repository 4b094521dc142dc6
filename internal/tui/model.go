// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tui implements the interactive chat interface.
//
// It is a thin presentation layer over the advisor: a viewport with the
// transcript, a text input, and a spinner while a turn is in flight.
// Recommendation cards render through glamour as markdown.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"asesor/internal/advisor"
	"asesor/internal/engine"
	"asesor/internal/evaluator"
	"asesor/internal/profile"
	"asesor/internal/util"
)

// ============================================================================
// STYLES
// ============================================================================

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("84"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// ============================================================================
// MODEL
// ============================================================================

const turnTimeout = 30 * time.Second

type turnMsg struct {
	result *engine.TurnResult
	err    error
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	adv      *advisor.Advisor
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	lines   []string
	waiting bool
	ready   bool
	width   int
	err     error
}

// New builds the chat model around an advisor.
func New(adv *advisor.Advisor) Model {
	ti := textinput.New()
	ti.Placeholder = "Escribe tu mensaje..."
	ti.Focus()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	m := Model{
		adv:      adv,
		input:    ti,
		spinner:  sp,
		renderer: renderer,
	}
	m.lines = append(m.lines, assistantStyle.Render("Asesor: "+adv.WelcomeMessage()))
	return m
}

// Init starts the spinner ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles input, window sizing, and turn completion.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.appendLine(userStyle.Render("Tú: ") + text)
			m.waiting = true
			return m, tea.Batch(m.runTurn(text), m.spinner.Tick)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		headerHeight := 1
		footerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.refreshViewport()

	case turnMsg:
		m.waiting = false
		if msg.err != nil {
			m.err = msg.err
			m.appendLine(errorStyle.Render("Error: " + msg.err.Error()))
			break
		}
		m.renderTurn(msg.result)
		if msg.result.Ended {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the transcript, the status line, and the input box.
func (m Model) View() string {
	if !m.ready {
		return "Cargando..."
	}

	status := statusStyle.Render("Estado: " + m.adv.CurrentState())
	if m.waiting {
		status = m.spinner.View() + " " + statusStyle.Render("Buscando la mejor respuesta...")
	}

	return fmt.Sprintf("%s\n%s\n%s",
		m.viewport.View(),
		status,
		inputBoxStyle.Width(max(20, m.width-4)).Render(m.input.View()),
	)
}

// ============================================================================
// TURN HANDLING
// ============================================================================

func (m Model) runTurn(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		result, err := m.adv.Process(ctx, text)
		return turnMsg{result: result, err: err}
	}
}

func (m *Model) renderTurn(res *engine.TurnResult) {
	m.appendLine(assistantStyle.Render("Asesor: ") + res.Reply)

	if len(res.Recommendations) > 0 {
		md := recommendationsMarkdown(res.Recommendations)
		if rendered, err := m.renderer.Render(md); err == nil {
			m.appendLine(rendered)
		} else {
			m.appendLine(md)
		}
	}
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n\n"))
	m.viewport.GotoBottom()
}

// recommendationsMarkdown renders the ranked products as cards.
func recommendationsMarkdown(recs []evaluator.ProductScore) string {
	var b strings.Builder
	for i, rec := range recs {
		p := rec.Product
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, util.TruncateRunes(p.Name, 60))
		fmt.Fprintf(&b, "**%s** · %s RAM · %.1fkg · %.1fh batería\n\n",
			profile.FormatPrice(p.PriceSale), p.RAM, p.WeightKg, p.BatteryHours)
		fmt.Fprintf(&b, "Coincidencia: **%d%%**. %s\n\n", rec.MatchPercentage, rec.Explanation)
		if p.URL != "" {
			fmt.Fprintf(&b, "[Ver producto](%s)\n\n", p.URL)
		}
	}
	return b.String()
}
