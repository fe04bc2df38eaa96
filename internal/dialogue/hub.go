package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cybershield/backend/internal/config"
	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/speech"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound    = errors.New("dialogue: session not found")
	ErrSubmissionInFlight = errors.New("dialogue: submission in progress")
	ErrUnknownVoiceAction = errors.New("dialogue: unknown voice action")
	ErrHubStopped         = errors.New("dialogue: hub stopped")
)

// Extractor pulls structured fields out of one utterance.
type Extractor interface {
	Extract(ctx context.Context, text string, lang models.Language) (models.ExtractedInfo, error)
}

// Submitter turns a finished draft into a stored complaint.
type Submitter interface {
	Submit(ctx context.Context, draft *models.Complaint) (*models.Complaint, error)
}

// VoiceAction is a speech control sent by the client.
type VoiceAction string

const (
	VoiceToggleSpeaker    VoiceAction = "toggle_speaker"
	VoiceToggleInput      VoiceAction = "toggle_input"
	VoiceToggleMicrophone VoiceAction = "toggle_microphone"
	VoiceSpeechEnded      VoiceAction = "speech_ended"
)

func (a VoiceAction) Valid() bool {
	switch a {
	case VoiceToggleSpeaker, VoiceToggleInput, VoiceToggleMicrophone, VoiceSpeechEnded:
		return true
	}
	return false
}

// Options tunes the hub. Zero values take the defaults from config.
type Options struct {
	IdleTimeout    time.Duration
	ExtractTimeout time.Duration
	SweepInterval  time.Duration
	NewID          func() string
}

type sessionResult struct {
	session    *Session
	directives []speech.Directive
	err        error
}

type turnResult struct {
	turn    Turn
	session *Session
	err     error
}

type openRequest struct {
	id     string
	lang   models.Language
	method models.InputMethod
	reply  chan sessionResult
}

type turnRequest struct {
	id    string
	text  string
	reply chan turnResult
}

type voiceRequest struct {
	id     string
	action VoiceAction
	reply  chan sessionResult
}

type sessionRequest struct {
	id    string
	reply chan sessionResult
}

type enrichment struct {
	id   string
	info models.ExtractedInfo
	err  error
}

type submission struct {
	id     string
	result *models.Complaint
	err    error
}

// Hub owns every dialogue session. All session state is read and written on
// the Run goroutine only; callers talk to it through channels.
type Hub struct {
	engine    *Engine
	extractor Extractor
	submitter Submitter
	opts      Options

	sessions map[string]*Session
	clients  map[string]map[Client]bool

	openCh     chan openRequest
	turnCh     chan turnRequest
	voiceCh    chan voiceRequest
	resetCh    chan sessionRequest
	closeCh    chan sessionRequest
	snapshotCh chan sessionRequest
	enrichCh   chan enrichment
	submitCh   chan submission

	RegisterCh   chan Client
	UnregisterCh chan Client

	ctx  context.Context
	done chan struct{}
}

// NewHub creates a hub. Run must be started before any other call returns.
func NewHub(engine *Engine, ex Extractor, sub Submitter, opts Options) *Hub {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = config.SessionIdleTimeout
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = config.ExtractTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = config.SessionSweepInterval
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Hub{
		engine:       engine,
		extractor:    ex,
		submitter:    sub,
		opts:         opts,
		sessions:     make(map[string]*Session),
		clients:      make(map[string]map[Client]bool),
		openCh:       make(chan openRequest),
		turnCh:       make(chan turnRequest),
		voiceCh:      make(chan voiceRequest),
		resetCh:      make(chan sessionRequest),
		closeCh:      make(chan sessionRequest),
		snapshotCh:   make(chan sessionRequest),
		enrichCh:     make(chan enrichment),
		submitCh:     make(chan submission),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		done:         make(chan struct{}),
	}
}

// Run is the hub loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.ctx = ctx
	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case req := <-h.openCh:
			h.handleOpen(req)

		case req := <-h.turnCh:
			h.handleTurn(req)

		case res := <-h.enrichCh:
			h.handleEnrichment(res)

		case res := <-h.submitCh:
			h.handleSubmission(res)

		case req := <-h.voiceCh:
			h.handleVoice(req)

		case req := <-h.resetCh:
			h.handleReset(req)

		case req := <-h.closeCh:
			_, ok := h.sessions[req.id]
			if ok {
				h.end(req.id)
				req.reply <- sessionResult{}
			} else {
				req.reply <- sessionResult{err: ErrSessionNotFound}
			}

		case req := <-h.snapshotCh:
			if s, ok := h.sessions[req.id]; ok {
				req.reply <- sessionResult{session: s.Snapshot()}
			} else {
				req.reply <- sessionResult{err: ErrSessionNotFound}
			}

		case client := <-h.RegisterCh:
			h.register(client)

		case client := <-h.UnregisterCh:
			h.unregister(client)

		case now := <-ticker.C:
			h.sweep(now)
		}
	}
}

// --- public API, safe for concurrent use ---

// Open starts a session. An empty id gets a fresh uuid; an existing id is
// replaced by a new conversation.
func (h *Hub) Open(ctx context.Context, id string, lang models.Language, method models.InputMethod) (*Session, []speech.Directive, error) {
	reply := make(chan sessionResult, 1)
	if err := deliver(ctx, h, h.openCh, openRequest{id: id, lang: lang, method: method, reply: reply}); err != nil {
		return nil, nil, err
	}
	res, err := await(ctx, h, reply)
	if err != nil {
		return nil, nil, err
	}
	return res.session, res.directives, res.err
}

// Turn feeds one utterance to a session. When the utterance submits the
// complaint, Turn returns after the submission finished.
func (h *Hub) Turn(ctx context.Context, id, text string) (Turn, *Session, error) {
	reply := make(chan turnResult, 1)
	if err := deliver(ctx, h, h.turnCh, turnRequest{id: id, text: text, reply: reply}); err != nil {
		return Turn{}, nil, err
	}
	res, err := await(ctx, h, reply)
	if err != nil {
		return Turn{}, nil, err
	}
	return res.turn, res.session, res.err
}

// Voice applies a speech control and returns the resulting directives.
func (h *Hub) Voice(ctx context.Context, id string, action VoiceAction) ([]speech.Directive, *Session, error) {
	if !action.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownVoiceAction, action)
	}
	reply := make(chan sessionResult, 1)
	if err := deliver(ctx, h, h.voiceCh, voiceRequest{id: id, action: action, reply: reply}); err != nil {
		return nil, nil, err
	}
	res, err := await(ctx, h, reply)
	if err != nil {
		return nil, nil, err
	}
	return res.directives, res.session, res.err
}

// Reset starts a new complaint in the same session language.
func (h *Hub) Reset(ctx context.Context, id string) (*Session, error) {
	return h.sessionCall(ctx, h.resetCh, id)
}

// Snapshot returns a copy of the session state.
func (h *Hub) Snapshot(ctx context.Context, id string) (*Session, error) {
	return h.sessionCall(ctx, h.snapshotCh, id)
}

// Close discards a session and disconnects its clients.
func (h *Hub) Close(ctx context.Context, id string) error {
	_, err := h.sessionCall(ctx, h.closeCh, id)
	return err
}

func (h *Hub) sessionCall(ctx context.Context, ch chan sessionRequest, id string) (*Session, error) {
	reply := make(chan sessionResult, 1)
	if err := deliver(ctx, h, ch, sessionRequest{id: id, reply: reply}); err != nil {
		return nil, err
	}
	res, err := await(ctx, h, reply)
	if err != nil {
		return nil, err
	}
	return res.session, res.err
}

// Register attaches a transport client to its session.
func (h *Hub) Register(c Client) {
	select {
	case h.RegisterCh <- c:
	case <-h.done:
		c.Close()
	}
}

// Unregister detaches a client; the last client leaving ends the session.
func (h *Hub) Unregister(c Client) {
	select {
	case h.UnregisterCh <- c:
	case <-h.done:
	}
}

func deliver[T any](ctx context.Context, h *Hub, ch chan<- T, req T) error {
	select {
	case ch <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}
}

func await[T any](ctx context.Context, h *Hub, reply <-chan T) (T, error) {
	var zero T
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-h.done:
		select {
		case res := <-reply:
			return res, nil
		default:
			return zero, ErrHubStopped
		}
	}
}

// --- hub goroutine ---

func (h *Hub) handleOpen(req openRequest) {
	id := req.id
	if id == "" {
		id = h.opts.NewID()
	}
	if _, exists := h.sessions[id]; exists {
		h.end(id)
	}
	s := newSession(id, req.lang, req.method, h.engine.Now())
	ds := h.engine.Begin(s)
	h.sessions[id] = s
	log.Printf("INFO: dialogue session %s opened (%s, %s)", id, s.Language, s.InputMethod)
	req.reply <- sessionResult{session: s.Snapshot(), directives: ds}
}

func (h *Hub) handleTurn(req turnRequest) {
	s, ok := h.sessions[req.id]
	if !ok {
		req.reply <- turnResult{err: ErrSessionNotFound}
		return
	}

	if s.Submitting {
		turn := h.engine.Busy(s, req.text)
		h.broadcastTurn(s, turn)
		req.reply <- turnResult{turn: turn, session: s.Snapshot()}
		return
	}

	turn := h.engine.Step(s, req.text)
	if turn.Ignored {
		req.reply <- turnResult{turn: turn, session: s.Snapshot()}
		return
	}
	h.broadcastTurn(s, turn)

	if turn.Submit {
		s.Submitting = true
		s.pending = &pendingTurn{turn: turn, reply: req.reply}
		h.submit(s.ID, s.Draft.Clone())
		return
	}

	h.enrich(s.ID, req.text, s.Language)
	req.reply <- turnResult{turn: turn, session: s.Snapshot()}
}

func (h *Hub) enrich(id, text string, lang models.Language) {
	if h.extractor == nil {
		return
	}
	parent := h.ctx
	go func() {
		ctx, cancel := context.WithTimeout(parent, h.opts.ExtractTimeout)
		defer cancel()
		info, err := h.extractor.Extract(ctx, text, lang)
		select {
		case h.enrichCh <- enrichment{id: id, info: info, err: err}:
		case <-parent.Done():
		}
	}()
}

func (h *Hub) handleEnrichment(res enrichment) {
	if res.err != nil {
		log.Printf("WARNING: extraction for session %s failed: %v", res.id, res.err)
		return
	}
	s, ok := h.sessions[res.id]
	if !ok || s.Draft == nil || res.info.Empty() {
		return
	}
	s.Draft.Merge(res.info)
}

func (h *Hub) submit(id string, draft *models.Complaint) {
	parent := h.ctx
	go func() {
		result, err := h.submitter.Submit(parent, draft)
		select {
		case h.submitCh <- submission{id: id, result: result, err: err}:
		case <-parent.Done():
		}
	}()
}

func (h *Hub) handleSubmission(res submission) {
	s, ok := h.sessions[res.id]
	if !ok || s.pending == nil {
		if res.err == nil {
			log.Printf("INFO: complaint %s submitted after its session closed", res.result.TrackingCode)
		}
		return
	}
	p := s.pending
	s.pending = nil
	s.Submitting = false
	turn := p.turn
	loc := h.engine.Localizer

	if res.err != nil {
		log.Printf("ERROR: submission for session %s failed: %v", s.ID, res.err)
		text := loc.GetString(s.Language, localization.KeySubmitError)
		msg, ds := h.engine.Announce(s, text)
		turn.Messages = append(turn.Messages, msg)
		turn.Directives = append(turn.Directives, ds...)
		turn.SubmitError = text
		h.broadcast(s.ID, messageFrame(msg, 0), directiveFrame(ds))
		p.reply <- turnResult{turn: turn, session: s.Snapshot()}
		return
	}

	s.Result = res.result.Clone()
	s.Draft = nil
	msg, ds := h.engine.Announce(s, loc.Format(s.Language, localization.KeySubmitted, res.result.TrackingCode))
	turn.Messages = append(turn.Messages, msg)
	turn.Directives = append(turn.Directives, ds...)
	turn.Complaint = res.result.Clone()
	h.broadcast(s.ID, messageFrame(msg, 0), directiveFrame(ds), Frame{Type: FrameComplaint, Complaint: res.result.Clone()})
	p.reply <- turnResult{turn: turn, session: s.Snapshot()}
	h.end(s.ID)
}

func (h *Hub) handleVoice(req voiceRequest) {
	s, ok := h.sessions[req.id]
	if !ok {
		req.reply <- sessionResult{err: ErrSessionNotFound}
		return
	}
	s.LastActive = h.engine.Now()

	var ds []speech.Directive
	switch req.action {
	case VoiceToggleSpeaker:
		ds = s.Speech.ToggleSpeaker()
	case VoiceToggleInput:
		if s.InputMethod == models.InputVoice {
			s.InputMethod = models.InputText
		} else {
			s.InputMethod = models.InputVoice
		}
		ds = s.Speech.ToggleInputMethod(s.InputMethod == models.InputVoice)
	case VoiceToggleMicrophone:
		ds = s.Speech.ToggleMicrophone()
	case VoiceSpeechEnded:
		s.Speech.SpeechEnded()
	}
	h.broadcast(s.ID, directiveFrame(ds))
	req.reply <- sessionResult{session: s.Snapshot(), directives: ds}
}

func (h *Hub) handleReset(req sessionRequest) {
	s, ok := h.sessions[req.id]
	if !ok {
		req.reply <- sessionResult{err: ErrSessionNotFound}
		return
	}
	if s.Submitting {
		req.reply <- sessionResult{err: ErrSubmissionInFlight}
		return
	}
	ds := h.engine.Begin(s)
	h.broadcast(s.ID, messageFrame(s.Transcript[0], 0), directiveFrame(ds))
	req.reply <- sessionResult{session: s.Snapshot(), directives: ds}
}

func (h *Hub) register(c Client) {
	s, ok := h.sessions[c.SessionID()]
	if !ok {
		c.Close()
		return
	}
	if h.clients[s.ID] == nil {
		h.clients[s.ID] = make(map[Client]bool)
	}
	h.clients[s.ID][c] = true
	for _, m := range s.Transcript {
		if !h.deliverTo(s.ID, c, messageFrame(m, 0)) {
			return
		}
	}
}

func (h *Hub) unregister(c Client) {
	set, ok := h.clients[c.SessionID()]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	c.Close()
	if len(set) == 0 {
		delete(h.clients, c.SessionID())
		if s, ok := h.sessions[c.SessionID()]; ok && !s.Submitting {
			log.Printf("INFO: last client left session %s", s.ID)
			delete(h.sessions, s.ID)
		}
	}
}

func (h *Hub) sweep(now time.Time) {
	for id, s := range h.sessions {
		if !s.Submitting && now.Sub(s.LastActive) > h.opts.IdleTimeout {
			log.Printf("INFO: dialogue session %s expired", id)
			h.end(id)
		}
	}
}

// end removes the session and disconnects its clients. A pending submit
// turn is answered with ErrSessionNotFound.
func (h *Hub) end(id string) {
	if s, ok := h.sessions[id]; ok && s.pending != nil {
		s.pending.reply <- turnResult{err: ErrSessionNotFound}
		s.pending = nil
	}
	delete(h.sessions, id)
	for c := range h.clients[id] {
		c.Close()
	}
	delete(h.clients, id)
}

func (h *Hub) shutdown() {
	for id := range h.sessions {
		h.end(id)
	}
}

func (h *Hub) broadcastTurn(s *Session, turn Turn) {
	frames := make([]Frame, 0, len(turn.Messages)+1)
	for _, m := range turn.Messages {
		var delay time.Duration
		if m.Sender == models.SenderBot {
			delay = turn.ReplyDelay
		}
		frames = append(frames, messageFrame(m, delay))
	}
	frames = append(frames, directiveFrame(turn.Directives))
	h.broadcast(s.ID, frames...)
}

func (h *Hub) broadcast(id string, frames ...Frame) {
	for c := range h.clients[id] {
		for _, f := range frames {
			if f.Type == "" {
				continue
			}
			if !h.deliverTo(id, c, f) {
				break
			}
		}
	}
}

// deliverTo drops a client whose send buffer is full.
func (h *Hub) deliverTo(id string, c Client, f Frame) bool {
	select {
	case c.Send() <- f:
		return true
	default:
		log.Printf("WARNING: client of session %s is too slow, disconnecting", id)
		delete(h.clients[id], c)
		c.Close()
		return false
	}
}
