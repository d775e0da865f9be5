package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	filenameSuffix  = "_Privacy_Policy.txt"
	defaultFilename = "Privacy_Policy.txt"
)

var (
	filenameSeparators = regexp.MustCompile(`[\s/\\:*?"<>|]+`)
	blankLines         = regexp.MustCompile(`\n{3,}`)
)

// PlainText renders fragment the way a browser reports its visible text:
// headings, paragraphs and blocks are separated by a blank line, list items
// and line breaks start a new line, and runs of whitespace collapse.
func PlainText(fragment string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return "", fmt.Errorf("export: parse fragment: %w", err)
	}

	w := &textWriter{}
	for _, n := range nodes {
		w.walk(n)
	}
	out := blankLines.ReplaceAllString(w.b.String(), "\n\n")
	return strings.TrimSpace(out), nil
}

type textWriter struct {
	b strings.Builder
	// space is pending between two inline runs.
	space bool
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head:
		return
	case atom.Br:
		w.newline(1)
		return
	}

	breaks := blockBreaks(n.DataAtom)
	w.newline(breaks)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	w.newline(breaks)
}

func (w *textWriter) text(data string) {
	if strings.TrimSpace(data) == "" {
		if data != "" && !w.atLineStart() {
			w.space = true
		}
		return
	}
	if isSpace(data[0]) && !w.atLineStart() {
		w.space = true
	}
	if w.space {
		w.b.WriteByte(' ')
		w.space = false
	}
	w.b.WriteString(strings.Join(strings.Fields(data), " "))
	w.space = isSpace(data[len(data)-1])
}

// newline ends the current line and makes sure at least count line breaks
// separate it from what follows.
func (w *textWriter) newline(count int) {
	if count == 0 {
		return
	}
	w.space = false
	if w.b.Len() == 0 {
		return
	}
	s := w.b.String()
	have := len(s) - len(strings.TrimRight(s, "\n"))
	for ; have < count; have++ {
		w.b.WriteByte('\n')
	}
}

func (w *textWriter) atLineStart() bool {
	s := w.b.String()
	return s == "" || strings.HasSuffix(s, "\n")
}

func blockBreaks(a atom.Atom) int {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.P, atom.Ul, atom.Ol:
		return 2
	case atom.Li, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer, atom.Tr:
		return 1
	}
	return 0
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

// DownloadFilename names the .txt download after the company: runs of
// whitespace (and characters file systems reject) become a single
// underscore. "Acme Corp" yields "Acme_Corp_Privacy_Policy.txt".
func DownloadFilename(companyName string) string {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return defaultFilename
	}
	name = filenameSeparators.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return defaultFilename
	}
	return name + filenameSuffix
}

// WriteDownload writes the plain-text rendering of fragment to w.
func WriteDownload(w io.Writer, fragment string) error {
	if w == nil {
		return fmt.Errorf("export: missing writer")
	}
	text, err := PlainText(fragment)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, text+"\n"); err != nil {
		return fmt.Errorf("export: write download: %w", err)
	}
	return nil
}
