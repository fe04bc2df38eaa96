package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/speech"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type hubFixture struct {
	hub       *Hub
	extractor *MockExtractor
	submitter *MockSubmitter
	ctx       context.Context
}

func startHub(t *testing.T, opts Options) *hubFixture {
	t.Helper()
	l, err := localization.Default()
	require.NoError(t, err)

	f := &hubFixture{extractor: new(MockExtractor), submitter: new(MockSubmitter)}
	f.hub = NewHub(NewEngine(l), f.extractor, f.submitter, opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.hub.Run(ctx)
	f.ctx = context.Background()
	return f
}

func (f *hubFixture) extractNothing() {
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(models.ExtractedInfo{}, nil)
}

func (f *hubFixture) open(t *testing.T) *Session {
	t.Helper()
	s, _, err := f.hub.Open(f.ctx, "", models.LanguageEnglish, models.InputText)
	require.NoError(t, err)
	return s
}

func (f *hubFixture) fill(t *testing.T, id string) {
	t.Helper()
	for _, u := range []string{"John Smith", "john@example.com", "9876543210", "Fake bank site stole my login", "today", "none"} {
		_, _, err := f.hub.Turn(f.ctx, id, u)
		require.NoError(t, err)
	}
}

func TestHub_OpenAndSnapshot(t *testing.T) {
	f := startHub(t, Options{NewID: func() string { return "fixed-id" }})

	s, ds, err := f.hub.Open(f.ctx, "", models.LanguageBengali, models.InputText)

	require.NoError(t, err)
	assert.Equal(t, "fixed-id", s.ID)
	require.Len(t, s.Transcript, 1)
	require.Len(t, ds, 1)
	assert.Equal(t, speech.ActionSpeak, ds[0].Action)
	assert.Equal(t, "bn-IN", ds[0].Locale)

	snap, err := f.hub.Snapshot(f.ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, s.Transcript, snap.Transcript)
}

func TestHub_UnknownSession(t *testing.T) {
	f := startHub(t, Options{})

	_, _, err := f.hub.Turn(f.ctx, "nope", "hi")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.hub.Snapshot(f.ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, f.hub.Close(f.ctx, "nope"), ErrSessionNotFound)
}

func TestHub_TurnsMutateOnlyThroughHub(t *testing.T) {
	// Arrange
	f := startHub(t, Options{})
	f.extractNothing()
	s := f.open(t)

	// Act
	turn, snap, err := f.hub.Turn(f.ctx, s.ID, "John Smith")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, localization.KeyAskEmail, turn.ReplyKey)
	assert.Equal(t, "John Smith", snap.Draft.FullName)
	assert.Empty(t, s.Draft.FullName, "earlier snapshots are not aliased")
}

func TestHub_EnrichmentMergesLate(t *testing.T) {
	// Arrange
	f := startHub(t, Options{})
	release := make(chan struct{})
	f.extractor.On("Extract", mock.Anything, "My name is Ravi and I live in Pune", models.LanguageEnglish).
		Run(func(mock.Arguments) { <-release }).
		Return(models.ExtractedInfo{Address: "Pune", IncidentType: models.IncidentIdentityTheft}, nil)
	s := f.open(t)

	// Act
	turn, snap, err := f.hub.Turn(f.ctx, s.ID, "My name is Ravi and I live in Pune")
	require.NoError(t, err)

	// Assert: the reply did not wait for extraction
	assert.Equal(t, localization.KeyAskEmail, turn.ReplyKey)
	assert.Empty(t, snap.Draft.Address)

	close(release)
	assert.Eventually(t, func() bool {
		cur, err := f.hub.Snapshot(f.ctx, s.ID)
		return err == nil && cur.Draft.Address == "Pune" && cur.Draft.IncidentType == models.IncidentIdentityTheft
	}, time.Second, 5*time.Millisecond)
}

func TestHub_ExtractorFailureIsIgnored(t *testing.T) {
	f := startHub(t, Options{})
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(models.ExtractedInfo{}, errors.New("quota"))
	s := f.open(t)

	_, snap, err := f.hub.Turn(f.ctx, s.ID, "John Smith")

	require.NoError(t, err)
	assert.Equal(t, "John Smith", snap.Draft.FullName)
}

func TestHub_SubmitReturnsTrackingCode(t *testing.T) {
	// Arrange
	f := startHub(t, Options{})
	f.extractNothing()
	s := f.open(t)
	f.fill(t, s.ID)
	stored := &models.Complaint{TrackingCode: "CS-7K2M9QXA", Status: models.StatusReceived, FullName: "John Smith"}
	f.submitter.On("Submit", mock.Anything, mock.MatchedBy(func(d *models.Complaint) bool {
		return d.FullName == "John Smith" && d.FinancialLoss == "none"
	})).Return(stored, nil).Once()

	// Act
	turn, snap, err := f.hub.Turn(f.ctx, s.ID, "submit")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, turn.Complaint)
	assert.Regexp(t, `^CS-[A-Z0-9]{8}$`, turn.Complaint.TrackingCode)
	assert.Equal(t, models.StatusReceived, turn.Complaint.Status)
	assert.Len(t, turn.Messages, 3)
	assert.Contains(t, turn.Messages[2].Content, "CS-7K2M9QXA")
	assert.Equal(t, "CS-7K2M9QXA", snap.Result.TrackingCode)
	assert.Nil(t, snap.Draft)

	_, err = f.hub.Snapshot(f.ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "a submitted session ends")
	f.submitter.AssertExpectations(t)
}

func TestHub_SubmitFailureKeepsSession(t *testing.T) {
	f := startHub(t, Options{})
	f.extractNothing()
	s := f.open(t)
	f.fill(t, s.ID)
	f.submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	turn, snap, err := f.hub.Turn(f.ctx, s.ID, "submit")

	require.NoError(t, err)
	assert.Equal(t, "There was an error submitting your complaint. Please try again.", turn.SubmitError)
	assert.Nil(t, turn.Complaint)
	assert.False(t, snap.Submitting)
	assert.Equal(t, "John Smith", snap.Draft.FullName)
	last := snap.Transcript[len(snap.Transcript)-1]
	assert.Equal(t, models.SenderBot, last.Sender)
	assert.Equal(t, turn.SubmitError, last.Content)
}

func TestHub_TurnDuringSubmissionDoesNotResubmit(t *testing.T) {
	// Arrange
	f := startHub(t, Options{})
	f.extractNothing()
	s := f.open(t)
	f.fill(t, s.ID)
	release := make(chan struct{})
	f.submitter.On("Submit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(&models.Complaint{TrackingCode: "CS-AAAA1111", Status: models.StatusReceived}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var submitTurn Turn
	go func() {
		defer wg.Done()
		submitTurn, _, _ = f.hub.Turn(f.ctx, s.ID, "submit")
	}()
	require.Eventually(t, func() bool {
		cur, err := f.hub.Snapshot(f.ctx, s.ID)
		return err == nil && cur.Submitting
	}, time.Second, 5*time.Millisecond)

	// Act
	busy, _, err := f.hub.Turn(f.ctx, s.ID, "submit again please")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, localization.KeySubmitting, busy.ReplyKey)
	assert.False(t, busy.Submit)

	close(release)
	wg.Wait()
	assert.Equal(t, "CS-AAAA1111", submitTurn.Complaint.TrackingCode)
	f.submitter.AssertNumberOfCalls(t, "Submit", 1)
}

func TestHub_ResetKeepsLanguage(t *testing.T) {
	f := startHub(t, Options{})
	f.extractNothing()
	s, _, err := f.hub.Open(f.ctx, "", models.LanguageTamil, models.InputText)
	require.NoError(t, err)
	_, _, err = f.hub.Turn(f.ctx, s.ID, "Kumar")
	require.NoError(t, err)

	reset, err := f.hub.Reset(f.ctx, s.ID)

	require.NoError(t, err)
	assert.Equal(t, models.LanguageTamil, reset.Language)
	assert.Empty(t, reset.Draft.FullName)
	assert.Len(t, reset.Transcript, 1)
}

func TestHub_Voice(t *testing.T) {
	f := startHub(t, Options{})
	s := f.open(t)

	ds, snap, err := f.hub.Voice(f.ctx, s.ID, VoiceToggleInput)
	require.NoError(t, err)
	assert.Equal(t, models.InputVoice, snap.InputMethod)
	assert.Equal(t, speech.ActionListen, ds[len(ds)-1].Action)

	_, snap, err = f.hub.Voice(f.ctx, s.ID, VoiceToggleSpeaker)
	require.NoError(t, err)
	assert.False(t, snap.Speech.SpeakerEnabled)

	_, _, err = f.hub.Voice(f.ctx, s.ID, "dance")
	assert.ErrorIs(t, err, ErrUnknownVoiceAction)
}

func TestHub_ClientReceivesFrames(t *testing.T) {
	// Arrange
	f := startHub(t, Options{})
	f.extractNothing()
	s := f.open(t)
	c := newFakeClient(s.ID)
	f.hub.Register(c)

	// Act
	_, _, err := f.hub.Turn(f.ctx, s.ID, "John Smith")
	require.NoError(t, err)
	require.NoError(t, f.hub.Close(f.ctx, s.ID))

	// Assert
	frames := c.drain()
	require.GreaterOrEqual(t, len(frames), 4)
	assert.Equal(t, FrameMessage, frames[0].Type, "transcript replay")
	assert.Equal(t, models.SenderUser, frames[1].Message.Sender)
	assert.Equal(t, models.SenderBot, frames[2].Message.Sender)
	assert.Equal(t, int64(1000), frames[2].DelayMs)
	assert.Equal(t, FrameDirective, frames[3].Type)
	assert.True(t, c.isClosed())
}

func TestHub_LastClientLeavingEndsSession(t *testing.T) {
	f := startHub(t, Options{})
	s := f.open(t)
	c := newFakeClient(s.ID)
	f.hub.Register(c)

	f.hub.Unregister(c)

	_, err := f.hub.Snapshot(f.ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, c.isClosed())
}

func TestHub_RegisterForUnknownSessionClosesClient(t *testing.T) {
	f := startHub(t, Options{})
	c := newFakeClient("ghost")

	f.hub.Register(c)

	assert.Eventually(t, c.isClosed, time.Second, 5*time.Millisecond)
}

func TestHub_IdleSessionsExpire(t *testing.T) {
	f := startHub(t, Options{IdleTimeout: 30 * time.Millisecond, SweepInterval: 5 * time.Millisecond})
	s := f.open(t)

	assert.Eventually(t, func() bool {
		_, err := f.hub.Snapshot(f.ctx, s.ID)
		return errors.Is(err, ErrSessionNotFound)
	}, time.Second, 10*time.Millisecond)
}

func TestHub_StoppedHub(t *testing.T) {
	l, err := localization.Default()
	require.NoError(t, err)
	hub := NewHub(NewEngine(l), nil, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { hub.Run(ctx); close(done) }()
	cancel()
	<-done

	_, _, err = hub.Open(context.Background(), "", models.LanguageEnglish, models.InputText)

	assert.ErrorIs(t, err, ErrHubStopped)
}
