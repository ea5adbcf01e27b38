package dialog

import (
	"strings"
)

type MessageBoxFlags int

const (
	MessageWarn MessageBoxFlags = 1 << iota
	MessageError
	MessageOkCancel
	MessageYesNo
	MessageQuestion
)

type MessageKind int

const (
	KindInfo MessageKind = iota
	KindQuestion
	KindWarning
	KindError
)

type ButtonSet int

const (
	ButtonsOk ButtonSet = iota
	ButtonsYesNo
	ButtonsOkCancel
	// ButtonsCustom means the labels given by MessageBox.Buttons.
	ButtonsCustom
)

// Results of a message box with a standard button set.
const (
	ResultClosed = 0
	ResultYes    = 1
	ResultOk     = 1
	ResultNo     = 2
	ResultCancel = 2
)

// MessageBox describes a message dialog. Buttons optionally is a
// '|' separated list of custom button labels. The result of
// a custom button is its 1 based index.
type MessageBox struct {
	dialog

	Title   string
	Heading string
	Text    string
	Buttons string
	Flags   MessageBoxFlags
}

func NewMessageBox(title, heading, text, buttons string, flags MessageBoxFlags) *MessageBox {
	return &MessageBox{
		Title:   title,
		Heading: heading,
		Text:    text,
		Buttons: buttons,
		Flags:   flags,
	}
}

func (mb *MessageBox) Is(flag MessageBoxFlags) bool {
	return mb.Flags&flag != 0
}

// Kind determines the message type. Later flags take precedence:
// error over warning over question.
func (mb *MessageBox) Kind() MessageKind {
	kind := KindInfo
	if mb.Is(MessageYesNo) || mb.Is(MessageQuestion) {
		kind = KindQuestion
	}
	if mb.Is(MessageWarn) {
		kind = KindWarning
	}
	if mb.Is(MessageError) {
		kind = KindError
	}
	return kind
}

func (mb *MessageBox) ButtonSet() ButtonSet {
	switch {
	case mb.Buttons != "":
		return ButtonsCustom
	case mb.Is(MessageOkCancel):
		return ButtonsOkCancel
	case mb.Is(MessageYesNo):
		return ButtonsYesNo
	default:
		return ButtonsOk
	}
}

// ButtonLabels returns the labels of the buttons in result order.
func (mb *MessageBox) ButtonLabels() []string {
	switch mb.ButtonSet() {
	case ButtonsCustom:
		return strings.Split(mb.Buttons, "|")
	case ButtonsOkCancel:
		return []string{"OK", "Cancel"}
	case ButtonsYesNo:
		return []string{"Yes", "No"}
	default:
		return []string{"OK"}
	}
}
