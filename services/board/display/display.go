// Package display is the board's user-visible text surface: a status line
// and a transient notification line.
package display

// Display is what handlers and services draw through. Neither call reports
// errors; a board without a working panel gets Null.
type Display interface {
	ShowNotification(text string)
	SetStatus(text string)
}

// Null is the display installed when the panel failed to initialise.
type Null struct{}

func (Null) ShowNotification(string) {}
func (Null) SetStatus(string)        {}

var _ Display = Null{}
