// Package speech models the client's speech-to-text and text-to-speech
// engines. The server never touches audio: it tracks what the microphone and
// speaker are doing and emits directives the client executes with its native
// engine. Listening and speaking share one owner; starting either one cancels
// the other.
package speech

import "time"

// State is the current owner of the audio session.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateSpeaking  State = "speaking"
)

// Action is an instruction for the client speech engine.
type Action string

const (
	ActionSpeak         Action = "speak"
	ActionCancel        Action = "cancel"
	ActionListen        Action = "listen"
	ActionStopListening Action = "stop_listening"
)

// Directive is one client-side speech instruction. After delays execution.
type Directive struct {
	Action Action        `json:"action"`
	Text   string        `json:"text,omitempty"`
	Locale string        `json:"locale"`
	After  time.Duration `json:"-"`
	// AfterMs mirrors After for JSON clients.
	AfterMs int64 `json:"afterMs"`
}

// Recognition settings the client engine is expected to use.
const (
	Continuous     = false
	InterimResults = true
)

// Adapter is the speech state for one dialogue session. It is not safe for
// concurrent use; the dialogue hub owns it.
type Adapter struct {
	Locale         string `json:"locale"`
	State          State  `json:"state"`
	SpeakerEnabled bool   `json:"speakerEnabled"`
	Transcript     string `json:"transcript,omitempty"`
	// ListenQueued is set while a scheduled listen waits for speech to end.
	ListenQueued bool `json:"listenQueued,omitempty"`
}

// NewAdapter returns an idle adapter with the speaker on.
func NewAdapter(locale string) *Adapter {
	return &Adapter{Locale: locale, State: StateIdle, SpeakerEnabled: true}
}

func (a *Adapter) Listening() bool { return a.State == StateListening }
func (a *Adapter) Speaking() bool  { return a.State == StateSpeaking }

func (a *Adapter) directive(action Action, text string, after time.Duration) Directive {
	return Directive{Action: action, Text: text, Locale: a.Locale, After: after, AfterMs: after.Milliseconds()}
}

// StartListening takes the audio session for recognition, cancelling speech.
func (a *Adapter) StartListening(after time.Duration) []Directive {
	var out []Directive
	if a.Speaking() {
		out = append(out, a.directive(ActionCancel, "", 0))
	}
	a.State = StateListening
	a.Transcript = ""
	a.ListenQueued = false
	return append(out, a.directive(ActionListen, "", after))
}

// ScheduleListen asks the client to resume recognition after a pause without
// cutting ongoing speech short. While speaking, the state changes to
// listening once SpeechEnded is reported.
func (a *Adapter) ScheduleListen(after time.Duration) []Directive {
	if a.Speaking() {
		a.ListenQueued = true
	} else {
		a.State = StateListening
		a.Transcript = ""
	}
	return []Directive{a.directive(ActionListen, "", after)}
}

// StopListening releases the microphone.
func (a *Adapter) StopListening() []Directive {
	a.ListenQueued = false
	if !a.Listening() {
		return nil
	}
	a.State = StateIdle
	return []Directive{a.directive(ActionStopListening, "", 0)}
}

// Heard records an interim or final recognition result.
func (a *Adapter) Heard(text string) {
	a.Transcript = text
}

// Speak hands text to the synthesiser. Ongoing speech is cancelled first and
// listening is stopped. A disabled speaker yields no directives.
func (a *Adapter) Speak(text string, after time.Duration) []Directive {
	if !a.SpeakerEnabled || text == "" {
		return nil
	}
	var out []Directive
	switch a.State {
	case StateSpeaking:
		out = append(out, a.directive(ActionCancel, "", 0))
	case StateListening:
		out = append(out, a.directive(ActionStopListening, "", 0))
	}
	a.State = StateSpeaking
	return append(out, a.directive(ActionSpeak, text, after))
}

// Cancel stops any ongoing speech.
func (a *Adapter) Cancel() []Directive {
	if !a.Speaking() {
		return nil
	}
	a.State = StateIdle
	return []Directive{a.directive(ActionCancel, "", 0)}
}

// SpeechEnded is reported by the client when an utterance finished playing.
func (a *Adapter) SpeechEnded() {
	if !a.Speaking() {
		return
	}
	a.State = StateIdle
	if a.ListenQueued {
		a.ListenQueued = false
		a.State = StateListening
		a.Transcript = ""
	}
}

// ToggleSpeaker flips speech output; turning it off cancels ongoing speech.
func (a *Adapter) ToggleSpeaker() []Directive {
	a.SpeakerEnabled = !a.SpeakerEnabled
	if !a.SpeakerEnabled {
		return a.Cancel()
	}
	return nil
}

// ToggleInputMethod follows a switch of the session input method: voice
// starts listening, text releases the microphone.
func (a *Adapter) ToggleInputMethod(voice bool) []Directive {
	if voice {
		return a.StartListening(0)
	}
	return a.StopListening()
}

// ToggleMicrophone starts or stops listening.
func (a *Adapter) ToggleMicrophone() []Directive {
	if a.Listening() {
		return a.StopListening()
	}
	return a.StartListening(0)
}
