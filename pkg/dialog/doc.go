// Package dialog shows native file choosers, message boxes and text log
// windows through an exchangeable GUI Toolkit.
//
// Toolkits usually insist on being driven by a single thread. A Session
// therefore runs a dedicated toolkit thread as long as at least one
// dialog is shown. Callers hand their requests to this thread and block
// on the session's condition until their dialog is closed again.
package dialog
