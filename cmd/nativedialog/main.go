// Command nativedialog shows a file chooser, lists the selected files in
// a text log and asks whether to show them again. The toolkit is chosen
// with the backend setting: "native" or "console".
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/errgo.v1"

	"github.com/martinhanzik/allegro5/internal/config"
	"github.com/martinhanzik/allegro5/pkg/dialog"
	"github.com/martinhanzik/allegro5/pkg/dialog/console"
	"github.com/martinhanzik/allegro5/pkg/dialog/native"
	"github.com/martinhanzik/allegro5/pkg/logging"
)

type Settings struct {
	Backend  string `koanf:"backend"`
	Title    string `koanf:"title"`
	Path     string `koanf:"path"`
	Patterns string `koanf:"patterns"`
	Multiple bool   `koanf:"multiple"`
	Debug    bool   `koanf:"debug"`
}

var defaults = map[string]interface{}{
	"backend":  "native",
	"title":    "Choose files",
	"path":     "",
	"patterns": "",
	"multiple": true,
	"debug":    false,
}

func toolkit(backend string) (dialog.Toolkit, error) {
	switch backend {
	case "native":
		return native.New(nil), nil
	case "console":
		return console.Default(), nil
	default:
		return nil, errgo.Newf("unknown backend %q", backend)
	}
}

func main() {
	var s Settings
	fs := flag.NewFlagSet("nativedialog", flag.ExitOnError)
	if _, err := config.Load("nativedialog", defaults, fs, os.Args[1:], &s); err != nil {
		fmt.Fprintf(os.Stderr, "nativedialog: %s\n", err)
		os.Exit(2)
	}
	logging.SetLogger(log.New(os.Stderr, "", log.LstdFlags))
	logging.SetDebug(s.Debug)

	tk, err := toolkit(s.Backend)
	if err == nil {
		err = run(dialog.NewSession(tk), s)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "nativedialog: %s\n", err)
		os.Exit(1)
	}
}

func run(session *dialog.Session, s Settings) error {
	var flags dialog.FileChooserFlags = dialog.FileMustExist
	if s.Multiple {
		flags |= dialog.FileMultiple
	}
	fc := dialog.NewFileChooser(s.Path, s.Title, s.Patterns, flags)

	for {
		ok, err := session.ShowFileChooser(fc)
		if err != nil {
			return err
		}
		if !ok {
			_, err := session.ShowMessageBox(dialog.NewMessageBox("Files", "No file selected", "", "", dialog.MessageWarn))
			return err
		}

		tl, err := session.OpenTextLog("Selected files", dialog.TextLogMonospace)
		if err != nil {
			return err
		}
		for i, p := range fc.Paths() {
			tl.Appendf("%3d %s\n", i+1, p)
		}

		answer, err := session.ShowMessageBox(dialog.NewMessageBox("Files",
			fmt.Sprintf("%d file(s) selected", fc.Count()), "Choose again?", "", dialog.MessageYesNo))
		if cerr := tl.Close(); err == nil {
			err = cerr
		}
		if err != nil || answer != dialog.ResultYes {
			return err
		}
	}
}
