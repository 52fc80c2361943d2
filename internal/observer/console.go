package observer

import (
	"fmt"
	"io"
	"os"

	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

// Console prints each segment as "[<start>s] <text>".
type Console struct {
	w io.Writer
}

// NewConsole writes to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (c *Console) Notify(seg transcript.Segment) error {
	_, err := fmt.Fprintf(c.w, "[%.2fs] %s\n", seg.StartTime, seg.Text)
	return err
}
