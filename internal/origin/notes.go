package origin

import (
	"context"
	"fmt"
)

// NoteSyntax is the markup a notes window renders.
type NoteSyntax int

const (
	SyntaxText NoteSyntax = iota
	SyntaxHTML
	SyntaxMarkdown
	SyntaxRichText
)

// NoteView is the display mode of a notes window.
type NoteView int

const (
	ViewText NoteView = iota
	ViewRender
)

// notesLineBreak is the line separator Origin stores in notes text.
const notesLineBreak = "\r\n"

// Notes is a notes window.
type Notes struct {
	*Page
	notes NotesHandle
}

func newNotes(ctx context.Context, conn *Connection, h PageHandle) (*Notes, error) {
	nh, ok := h.(NotesHandle)
	if !ok || isNil(nh) {
		return nil, ErrInvalidHandle
	}
	page, err := newPage(ctx, conn, nh)
	if err != nil {
		return nil, err
	}
	return &Notes{Page: page, notes: nh}, nil
}

func (n *Notes) Text() (string, error) {
	return n.notes.Text()
}

func (n *Notes) SetText(text string) error {
	return n.notes.SetText(text)
}

// Append adds text at the end, followed by a line break when newline is set.
func (n *Notes) Append(text string, newline bool) error {
	cur, err := n.Text()
	if err != nil {
		return err
	}
	cur += text
	if newline {
		cur += notesLineBreak
	}
	return n.SetText(cur)
}

func (n *Notes) Syntax() (NoteSyntax, error) {
	v, err := n.GetInt("syntax")
	return NoteSyntax(v), err
}

func (n *Notes) SetSyntax(s NoteSyntax) error {
	return n.SetInt("syntax", int(s))
}

func (n *Notes) View() (NoteView, error) {
	v, err := n.GetInt("view")
	return NoteView(v), err
}

func (n *Notes) SetView(v NoteView) error {
	return n.SetInt("view", int(v))
}

// Load reads a file into the window and returns Origin's error code, 0 on
// success. askReplace is honored by Origin 10.1 and later.
func (n *Notes) Load(path string, askReplace bool) (int, error) {
	arg := quotePath(path)
	ver, err := n.host.GetVar("@V")
	if err != nil {
		return 0, err
	}
	if ver > 10.1 {
		arg += fmt.Sprintf(", %d", boolInt(askReplace))
	}
	return n.MethodInt("load", arg)
}

// ExportHTML writes the window as HTML and returns Origin's error code, 0 on
// success.
func (n *Notes) ExportHTML(path string) (int, error) {
	return n.MethodInt("exporthtml", quotePath(path))
}

// Destroy closes the notes window.
func (n *Notes) Destroy() error {
	_, err := n.host.Execute("win -cn " + n.String())
	return err
}
