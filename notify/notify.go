// Package notify posts desktop notifications for session milestones.
// Delivery is fire-and-forget: a broken notification daemon must never
// stall dictation.
package notify

import "github.com/gen2brain/beeep"

const appTitle = "murmur"

type Notifier struct {
	enabled bool
}

func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

func (n *Notifier) post(title, body string) {
	if !n.enabled {
		return
	}
	go beeep.Notify(title, body, "")
}

func (n *Notifier) Ready(hotkey string) {
	n.post(appTitle, "Ready. Hold "+hotkey+" to dictate.")
}

func (n *Notifier) Recording() {
	n.post(appTitle, "Recording...")
}

func (n *Notifier) Transcribing() {
	n.post(appTitle, "Transcribing...")
}

func (n *Notifier) Done(text string) {
	n.post(appTitle, truncate(text, 80))
}

// truncate shortens text to max runes, never splitting a UTF-8 sequence.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}

func (n *Notifier) NoSpeech() {
	n.post(appTitle, "No speech detected.")
}

func (n *Notifier) Error(msg string) {
	n.post(appTitle+" error", msg)
}
