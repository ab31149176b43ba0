package dsl

import "github.com/aretw0/dialoguetree/pkg/domain"

// LineBuilder provides a fluent API for configuring one line of dialogue.
type LineBuilder struct {
	label    string
	speaker  string
	body     string
	preview  string
	start    bool
	position domain.Vector2
	next     []string
}

// Say sets who speaks and what they say.
func (l *LineBuilder) Say(speaker, body string) *LineBuilder {
	l.speaker = speaker
	l.body = body
	return l
}

// Preview sets the short text shown when this line is offered as an option.
func (l *LineBuilder) Preview(text string) *LineBuilder {
	l.preview = text
	return l
}

// Start marks the line as the entry point of the dialogue.
func (l *LineBuilder) Start() *LineBuilder {
	l.start = true
	return l
}

// At places the line in the editor.
func (l *LineBuilder) At(x, y float64) *LineBuilder {
	l.position = domain.Vector2{X: x, Y: y}
	return l
}

// Go adds one dialogue option per target, in order.
func (l *LineBuilder) Go(targets ...string) *LineBuilder {
	l.next = append(l.next, targets...)
	return l
}

// Terminal removes every option: playback ends on this line.
func (l *LineBuilder) Terminal() *LineBuilder {
	l.next = nil
	return l
}
