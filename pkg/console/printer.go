// Package console renders the chat on a terminal and reads the user's lines.
package console

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/gookit/color"
	"github.com/libp2p/go-libp2p/core/peer"
)

var (
	selfStyle    = color.New(color.OpBold, color.FgCyan)
	remoteStyle  = color.New(color.OpBold, color.FgMagenta)
	problemStyle = color.New(color.FgRed)
)

// Printer writes prompts, messages and notices. Every call ends with a flush
// and calls are serialized, so lines never interleave.
type Printer struct {
	mu     sync.Mutex
	w      *bufio.Writer
	styled bool
}

func NewPrinter(w io.Writer, styled bool) *Printer {
	return &Printer{w: bufio.NewWriter(w), styled: styled}
}

// Prompt shows the input prompt for this node.
func (p *Printer) Prompt(self peer.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = p.w.WriteString(p.label(self, selfStyle))
	_ = p.w.Flush()
}

// Message renders a received payload. Bytes that are not valid UTF-8 are
// replaced by a placeholder.
func (p *Printer) Message(from peer.ID, payload []byte) {
	text := string(payload)
	if !utf8.Valid(payload) {
		text = p.style(problemStyle, Placeholder(payload))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "\r%s%s\n", p.label(from, remoteStyle), text)
	_ = p.w.Flush()
}

// Notice prints an informational line for the user.
func (p *Printer) Notice(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "\r"+format+"\n", args...)
	_ = p.w.Flush()
}

// Placeholder is shown instead of a payload that is not text.
func Placeholder(payload []byte) string {
	return fmt.Sprintf("<undecodable message: %d bytes>", len(payload))
}

func (p *Printer) label(id peer.ID, s color.Style) string {
	return p.style(s, "["+id.String()+"]:") + " "
}

func (p *Printer) style(s color.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Sprint(text)
}
