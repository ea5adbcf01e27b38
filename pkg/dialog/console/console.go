// Package console implements a dialog.Toolkit on a text terminal.
//
// Dialogs are shown as line prompts. Text logs are written to the
// output, wrapped to the terminal width. If the input is a terminal,
// the escape key requests to close the current text log.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
	"gopkg.in/errgo.v1"

	"github.com/martinhanzik/allegro5/pkg/dialog"
	"github.com/martinhanzik/allegro5/pkg/logging"
)

const defaultWidth = 80

const keyEscape = 0x1b

type Toolkit struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader

	// guards out and the raw state
	lock  sync.Mutex
	width int
	raw   *term.State
	log   *window
}

var _ dialog.Toolkit = (*Toolkit)(nil)

// New creates a console toolkit reading answers from in and writing
// to out.
func New(in io.Reader, out io.Writer) *Toolkit {
	return &Toolkit{
		in:     in,
		out:    out,
		reader: bufio.NewReader(in),
		width:  defaultWidth,
	}
}

// Default creates a console toolkit on the standard streams.
func Default() *Toolkit {
	return New(os.Stdin, os.Stdout)
}

func fd(f interface{}) (int, bool) {
	file, ok := f.(*os.File)
	if !ok {
		return -1, false
	}
	n := int(file.Fd())
	return n, term.IsTerminal(n)
}

func (t *Toolkit) Init() error {
	if t.out == nil {
		return errgo.New("no output")
	}
	t.width = defaultWidth
	if n, ok := fd(t.out); ok {
		width, _, err := term.GetSize(n)
		if err == nil && width > 0 {
			t.width = width
		}
	}
	return nil
}

func (t *Toolkit) Shutdown() {
	t.stopKeys()
}

func (t *Toolkit) printf(format string, args ...interface{}) {
	t.lock.Lock()
	defer t.lock.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// prompt prints the prompt and reads a line. ok is false on end of input.
func (t *Toolkit) prompt(p string) (string, bool) {
	t.printf("%s", p)
	line, err := t.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		t.printf("\n")
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (t *Toolkit) heading(title string) {
	t.printf("== %s ==\n", title)
}

func (t *Toolkit) FileChooser(fc *dialog.FileChooser) ([]string, error) {
	t.heading(fc.Title)
	if fc.InitialPath != "" {
		t.printf("in %s\n", fc.InitialPath)
	}
	if len(fc.Patterns) > 0 {
		var desc []string
		for _, p := range fc.Patterns {
			desc = append(desc, p.Description)
		}
		t.printf("files %s\n", strings.Join(desc, ", "))
	}

	p := "path: "
	if fc.Is(dialog.FileMultiple) {
		p = "paths: "
	}
	for {
		line, ok := t.prompt(p)
		if !ok || line == "" {
			return nil, nil
		}
		var paths []string
		if fc.Is(dialog.FileMultiple) {
			paths = strings.Fields(line)
		} else {
			paths = []string{line}
		}
		for i, path := range paths {
			paths[i] = resolve(fc.InitialPath, path)
		}
		if err := check(fc, paths); err != nil {
			t.printf("%s\n", err)
			continue
		}
		return paths, nil
	}
}

// resolve interprets a relative path in the directory of the initial path.
func resolve(initial, path string) string {
	if initial == "" || filepath.IsAbs(path) {
		return path
	}
	dir := initial
	if fi, err := os.Stat(initial); err != nil || !fi.IsDir() {
		dir = filepath.Dir(initial)
	}
	return filepath.Join(dir, path)
}

func check(fc *dialog.FileChooser, paths []string) error {
	if !fc.Is(dialog.FileMustExist) || fc.Is(dialog.FileSave) {
		return nil
	}
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return errgo.Newf("no such file: %s", path)
		}
		if fc.Is(dialog.FileFolder) && !fi.IsDir() {
			return errgo.Newf("not a folder: %s", path)
		}
	}
	return nil
}

func (t *Toolkit) MessageBox(mb *dialog.MessageBox) (int, error) {
	t.heading(mb.Title)
	switch mb.Kind() {
	case dialog.KindWarning:
		t.printf("warning: ")
	case dialog.KindError:
		t.printf("error: ")
	}
	if mb.Heading != "" {
		t.printf("%s\n", mb.Heading)
	}
	if mb.Text != "" {
		t.printf("%s\n", wrap(mb.Text, t.width))
	}

	labels := mb.ButtonLabels()
	var choices []string
	for i, l := range labels {
		choices = append(choices, fmt.Sprintf("%d) %s", i+1, l))
	}
	t.printf("%s\n", strings.Join(choices, "  "))

	for {
		line, ok := t.prompt("choice: ")
		if !ok || line == "" {
			return dialog.ResultClosed, nil
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(labels) {
			return n, nil
		}
		for i, l := range labels {
			if strings.EqualFold(l, line) {
				return i + 1, nil
			}
		}
		t.printf("invalid choice %q\n", line)
	}
}

// wrap breaks text at spaces so that no line exceeds width, if possible.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		n := 0
		for j, word := range strings.Fields(line) {
			if j > 0 {
				if n+1+len(word) > width {
					b.WriteByte('\n')
					n = 0
				} else {
					b.WriteByte(' ')
					n++
				}
			}
			b.WriteString(word)
			n += len(word)
		}
	}
	return b.String()
}

type window struct {
	toolkit *Toolkit
	log     *dialog.TextLog
	prefix  string
	// start of line pending
	bol bool
}

func (t *Toolkit) TextLog(tl *dialog.TextLog) (dialog.TextLogWindow, error) {
	w := &window{
		toolkit: t,
		log:     tl,
		bol:     true,
	}
	if !tl.Is(dialog.TextLogMonospace) {
		w.prefix = tl.Title + ": "
	}
	t.heading(tl.Title)
	if !tl.Is(dialog.TextLogNoClose) {
		t.watchKeys(w)
	}
	return w, nil
}

func (w *window) Append(text string) {
	t := w.toolkit
	t.lock.Lock()
	defer t.lock.Unlock()

	var b strings.Builder
	for _, r := range text {
		if w.bol {
			b.WriteString(w.prefix)
			w.bol = false
		}
		if r == '\n' {
			if t.raw != nil {
				b.WriteByte('\r')
			}
			w.bol = true
		}
		b.WriteRune(r)
	}
	io.WriteString(t.out, b.String())
}

func (w *window) Destroy() {
	t := w.toolkit
	t.lock.Lock()
	if !w.bol {
		io.WriteString(t.out, "\n")
	}
	current := t.log == w
	t.lock.Unlock()
	if current {
		t.stopKeys()
	}
}

// watchKeys puts the input terminal into raw mode and reports the escape
// key for the given window. Only the most recently opened window is
// watched.
func (t *Toolkit) watchKeys(w *window) {
	n, ok := fd(t.in)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	if t.raw == nil {
		state, err := term.MakeRaw(n)
		if err != nil {
			logging.Debugf("console: cannot watch keys: %s", err)
			return
		}
		t.raw = state
		go t.readKeys()
	}
	t.log = w
}

func (t *Toolkit) readKeys() {
	buf := make([]byte, 1)
	for {
		if _, err := t.in.Read(buf); err != nil {
			return
		}
		t.lock.Lock()
		if t.raw == nil {
			t.lock.Unlock()
			return
		}
		w := t.log
		t.lock.Unlock()
		if buf[0] == keyEscape && w != nil {
			w.log.RequestClose(true)
		}
	}
}

func (t *Toolkit) stopKeys() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.log = nil
	if t.raw == nil {
		return
	}
	n, _ := fd(t.in)
	if err := term.Restore(n, t.raw); err != nil {
		logging.Debugf("console: cannot restore terminal: %s", err)
	}
	t.raw = nil
}
