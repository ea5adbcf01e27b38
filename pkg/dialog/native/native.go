// Package native implements a dialog.Toolkit with the native dialogs of
// the platform. Text logs are not available natively; they are passed
// to a console toolkit.
package native

import (
	"os"
	"path/filepath"

	sqweek "github.com/sqweek/dialog"
	"gopkg.in/errgo.v1"

	"github.com/martinhanzik/allegro5/pkg/dialog"
	"github.com/martinhanzik/allegro5/pkg/dialog/console"
	"github.com/martinhanzik/allegro5/pkg/logging"
)

type Toolkit struct {
	textlog *console.Toolkit
}

var _ dialog.Toolkit = (*Toolkit)(nil)

// New creates a native toolkit. Text logs are shown by the given console
// toolkit, or on the standard streams if it is nil.
func New(textlog *console.Toolkit) *Toolkit {
	if textlog == nil {
		textlog = console.Default()
	}
	return &Toolkit{textlog: textlog}
}

func (t *Toolkit) Init() error {
	return t.textlog.Init()
}

func (t *Toolkit) Shutdown() {
	t.textlog.Shutdown()
}

type filter struct {
	desc string
	exts []string
}

// filters maps the patterns of a file chooser. Patterns without an
// extension match everything and are dropped.
func filters(fc *dialog.FileChooser) []filter {
	var result []filter
	for _, p := range fc.Patterns {
		if len(p.Extensions) > 0 {
			result = append(result, filter{p.Description, p.Extensions})
		}
	}
	if fc.Is(dialog.FilePictures) && len(result) == 0 {
		result = append(result, filter{"Pictures", []string{"png", "jpg", "jpeg", "bmp", "gif", "tga", "pcx"}})
	}
	return result
}

// start splits the initial path into a start directory and file.
func start(fc *dialog.FileChooser) (dir, file string) {
	if fc.InitialPath == "" {
		return "", ""
	}
	if fi, err := os.Stat(fc.InitialPath); err == nil && fi.IsDir() {
		return fc.InitialPath, ""
	}
	return filepath.Dir(fc.InitialPath), filepath.Base(fc.InitialPath)
}

func (t *Toolkit) FileChooser(fc *dialog.FileChooser) ([]string, error) {
	if fc.Is(dialog.FileMultiple) {
		logging.Debugf("native: multiple selection not available, selecting a single file")
	}
	dir, file := start(fc)

	var path string
	var err error
	if fc.Is(dialog.FileFolder) {
		b := sqweek.Directory().Title(fc.Title)
		if dir != "" {
			b = b.SetStartDir(dir)
		}
		path, err = b.Browse()
	} else {
		b := sqweek.File().Title(fc.Title)
		for _, f := range filters(fc) {
			b = b.Filter(f.desc, f.exts...)
		}
		if dir != "" {
			b = b.SetStartDir(dir)
		}
		if file != "" {
			b = b.SetStartFile(file)
		}
		if fc.Is(dialog.FileSave) {
			path, err = b.Save()
		} else {
			path, err = b.Load()
		}
	}

	if err == sqweek.ErrCancelled {
		return nil, nil
	}
	if err != nil {
		return nil, errgo.Mask(err)
	}
	return []string{path}, nil
}

func (t *Toolkit) MessageBox(mb *dialog.MessageBox) (int, error) {
	if mb.ButtonSet() == dialog.ButtonsCustom {
		return dialog.ResultClosed, errgo.WithCausef(nil, dialog.ErrNotSupported, "custom buttons %q", mb.Buttons)
	}

	text := mb.Text
	if mb.Heading != "" {
		text = mb.Heading + "\n\n" + text
	}
	b := sqweek.Message("%s", text).Title(mb.Title)

	switch mb.ButtonSet() {
	case dialog.ButtonsYesNo, dialog.ButtonsOkCancel:
		// there is no ok/cancel box, yes and no take their places
		if b.YesNo() {
			return dialog.ResultYes, nil
		}
		return dialog.ResultNo, nil
	}
	if mb.Kind() == dialog.KindError {
		b.Error()
	} else {
		b.Info()
	}
	return dialog.ResultOk, nil
}

func (t *Toolkit) TextLog(tl *dialog.TextLog) (dialog.TextLogWindow, error) {
	return t.textlog.TextLog(tl)
}
