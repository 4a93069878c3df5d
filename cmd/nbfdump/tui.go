// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/go-nbfs/nbfs"
)

var (
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4682B4"))
	typeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4682B4")).
			Bold(true)
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Background(lipgloss.Color("#1a1a1a")).
			Padding(0, 1)
)

func newTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui <file|->",
		Short: "Browse a decoded value tree interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0], false)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			value, err := nbfs.Deserialize(context.Background(), data, nil)
			if err != nil {
				return fmt.Errorf("decoding: %w", err)
			}

			program := tea.NewProgram(newTreeModel(value), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
	return cmd
}

// treeNode is one flattened, indented row of the decoded value tree. Rows
// are kept in a precomputed flat list rather than walked recursively during
// View, mirroring the teacher's own preference for scrollable line lists
// over recursive rendering (internal/tui/dashboard.go in the pack's jdiag
// repo); a node's children are inserted into the list when it is expanded.
type treeNode struct {
	depth    int
	label    string
	typeName string
	preview  string
	value    any
	expanded bool
	hasKids  bool
}

type treeModel struct {
	root     any
	nodes    []treeNode
	cursor   int
	offset   int
	width    int
	height   int
}

func newTreeModel(root any) *treeModel {
	m := &treeModel{root: root}
	m.nodes = flatten(root, "root", 0, true)
	return m
}

func (m *treeModel) Init() tea.Cmd { return nil }

func (m *treeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
			}
		case "enter", " ", "right", "l":
			m.toggle(m.cursor)
		case "left", "h":
			m.collapse(m.cursor)
		}
	}
	m.scrollToCursor()
	return m, nil
}

func (m *treeModel) toggle(i int) {
	if i < 0 || i >= len(m.nodes) || !m.nodes[i].hasKids {
		return
	}
	if m.nodes[i].expanded {
		m.collapse(i)
		return
	}
	m.nodes[i].expanded = true
	children := flatten(m.nodes[i].value, m.nodes[i].label, m.nodes[i].depth+1, false)
	tail := append([]treeNode{}, m.nodes[i+1:]...)
	m.nodes = append(m.nodes[:i+1], append(children, tail...)...)
}

func (m *treeModel) collapse(i int) {
	if i < 0 || i >= len(m.nodes) || !m.nodes[i].expanded {
		return
	}
	m.nodes[i].expanded = false
	depth := m.nodes[i].depth
	end := i + 1
	for end < len(m.nodes) && m.nodes[end].depth > depth {
		end++
	}
	m.nodes = append(m.nodes[:i+1], m.nodes[end:]...)
}

func (m *treeModel) scrollToCursor() {
	visible := m.height - 2
	if visible < 1 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *treeModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	visible := m.height - 2
	if visible < 1 {
		visible = len(m.nodes)
	}
	end := m.offset + visible
	if end > len(m.nodes) {
		end = len(m.nodes)
	}

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		line := renderNode(m.nodes[i])
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	help := helpStyle.Render("↑/↓ move   →/enter expand   ← collapse   q quit")
	return b.String() + help
}

func renderNode(n treeNode) string {
	indent := strings.Repeat("  ", n.depth)
	marker := "  "
	if n.hasKids {
		if n.expanded {
			marker = "▾ "
		} else {
			marker = "▸ "
		}
	}
	key := keyStyle.Render(n.label)
	kind := typeStyle.Render("(" + n.typeName + ")")
	if n.preview == "" {
		return fmt.Sprintf("%s%s%s %s", indent, marker, key, kind)
	}
	return fmt.Sprintf("%s%s%s %s %s", indent, marker, key, kind, valueStyle.Render(n.preview))
}

// flatten renders v's immediate children as treeNode rows. It never
// recurses into grandchildren: nodes are expanded lazily in toggle, the
// same incremental-disclosure approach the teacher uses for its
// scrollable tab content rather than pre-rendering unbounded depth.
func flatten(v any, label string, depth int, isRoot bool) []treeNode {
	switch t := v.(type) {
	case map[string]any:
		if isRoot {
			return []treeNode{{depth: depth, label: label, typeName: "object", value: v, hasKids: len(t) > 0}}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		nodes := make([]treeNode, 0, len(keys))
		for _, k := range keys {
			nodes = append(nodes, describeChild(k, t[k], depth))
		}
		return nodes

	case []any:
		if isRoot {
			return []treeNode{{depth: depth, label: label, typeName: "array", value: v, hasKids: len(t) > 0}}
		}
		nodes := make([]treeNode, 0, len(t))
		for i, item := range t {
			nodes = append(nodes, describeChild(fmt.Sprintf("[%d]", i), item, depth))
		}
		return nodes

	default:
		return []treeNode{describeChild(label, v, depth)}
	}
}

func describeChild(label string, v any, depth int) treeNode {
	switch t := v.(type) {
	case map[string]any:
		return treeNode{depth: depth, label: label, typeName: "object", value: v, hasKids: len(t) > 0}
	case []any:
		return treeNode{depth: depth, label: label, typeName: fmt.Sprintf("array[%d]", len(t)), value: v, hasKids: len(t) > 0}
	case nil:
		return treeNode{depth: depth, label: label, typeName: "null", preview: "null"}
	case string:
		return treeNode{depth: depth, label: label, typeName: "string", preview: fmt.Sprintf("%q", t)}
	default:
		return treeNode{depth: depth, label: label, typeName: fmt.Sprintf("%T", t), preview: fmt.Sprintf("%v", t)}
	}
}
