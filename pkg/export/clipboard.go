package export

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the operating system clipboard. It fails on
// hosts without a clipboard utility (e.g. headless Linux without xclip).
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// ErrClipboardUnsupported reports that no clipboard is reachable.
var ErrClipboardUnsupported = errors.New("export: clipboard unsupported on this host")

// Copy writes the plain text of fragment to cb. A nil cb uses the system
// clipboard. Failures are returned to the caller rather than dropped.
func Copy(cb Clipboard, fragment string) error {
	if cb == nil {
		cb = SystemClipboard{}
	}
	text, err := PlainText(fragment)
	if err != nil {
		return err
	}
	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("export: copy to clipboard: %w", err)
	}
	return nil
}
