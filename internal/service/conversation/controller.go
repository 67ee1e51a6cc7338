package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mentalmatters/mentalmatters/internal/model/chat"
	"github.com/mentalmatters/mentalmatters/internal/model/question"
)

// DefaultReplyDelay is how long a bot reply is held back after it arrives,
// so the typing indicator stays visible for a moment.
const DefaultReplyDelay = 1500 * time.Millisecond

// User-facing texts.
const (
	NoticeFeedbackRequired = "Please enter feedback before submitting."
	NoticeFeedbackThanks   = "Thank you for your feedback!"
	NoticeRatingThanks     = "Thank you for your rating!"

	ErrorChatUnavailable = "The assistant is unavailable right now. Please try again."
	ErrorFeedbackFailed  = "Your feedback could not be sent. Please try again."
	ErrorRatingFailed    = "Your rating could not be sent. Please try again."
)

var (
	ErrEmptyMessage     = errors.New("message text is required")
	ErrEmptyFeedback    = errors.New("feedback text is required")
	ErrInvalidRating    = fmt.Errorf("rating must be between %d and %d", chat.MinRating, chat.MaxRating)
	ErrQuestionNotFound = errors.New("question not found")
	ErrClosed           = errors.New("conversation closed")
)

// Gateway is the remote backend the controller submits to.
type Gateway interface {
	PostUserInput(ctx context.Context, userID, text string) (string, error)
	SubmitFeedback(ctx context.Context, userID, feedback string) error
	SubmitRating(ctx context.Context, userID string, rating int) error
}

// Options tune a Controller. Zero values fall back to defaults.
type Options struct {
	ReplyDelay time.Duration
	Questions  question.Store
	Now        func() time.Time
}

// Controller owns the state of one chat screen: the message log, the composing
// indicator, the input field, the open modal and the feedback/rating submissions.
// Every mutation happens under mu, which plays the role of the UI event loop.
type Controller struct {
	gateway   Gateway
	questions question.Store
	delay     time.Duration
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	session        chat.Session
	messages       []chat.Message
	pending        int
	input          string
	modal          chat.Modal
	feedback       string
	feedbackStatus chat.SubmissionStatus
	rating         int
	ratingStatus   chat.SubmissionStatus
	notice         string
	lastError      string
	timers         map[*time.Timer]struct{}
	subscribers    map[int]chan chat.Event
	nextSub        int
	lastActive     time.Time
	closed         bool
}

// NewController creates the controller for session. Callers must Close it.
func NewController(session chat.Session, gateway Gateway, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Questions == nil {
		opts.Questions = question.NewMemoryStore(question.Seed())
	}
	if opts.ReplyDelay < 0 {
		opts.ReplyDelay = 0
	}
	if session.UserName == "" {
		session.UserName = chat.DefaultUserName
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		gateway:        gateway,
		questions:      opts.Questions,
		delay:          opts.ReplyDelay,
		now:            opts.Now,
		ctx:            ctx,
		cancel:         cancel,
		session:        session,
		messages:       make([]chat.Message, 0, 16),
		modal:          chat.ModalNone,
		feedbackStatus: chat.SubmissionIdle,
		ratingStatus:   chat.SubmissionIdle,
		timers:         make(map[*time.Timer]struct{}),
		subscribers:    make(map[int]chan chat.Event),
		lastActive:     opts.Now(),
	}
}

// Session returns the identity this controller submits on behalf of.
func (c *Controller) Session() chat.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// LastActive reports when the controller was last mutated.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() chat.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SetInput replaces the text of the input field.
func (c *Controller) SetInput(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.input = text
	c.touchLocked()
	c.publishLocked(chat.EventInput)
	return nil
}

// SelectQuestion copies a canned question into the input field. Nothing is sent.
func (c *Controller) SelectQuestion(id string) error {
	q, ok := c.questions.FindByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	return c.SetInput(q.Text)
}

// Send submits whatever is currently in the input field.
func (c *Controller) Send() error {
	c.mu.Lock()
	text := c.input
	c.mu.Unlock()
	return c.SendMessage(text)
}

// SendMessage appends the user's message right away, clears the input and asks
// the gateway for a reply in the background. Overlapping sends are not merged.
func (c *Controller) SendMessage(text string) error {
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.messages = append(c.messages, chat.Message{
		Sender:    chat.SenderUser,
		Text:      text,
		CreatedAt: c.now().UTC(),
	})
	c.input = ""
	c.pending++
	c.touchLocked()
	c.publishLocked(chat.EventMessage)
	userID := c.session.UserID
	c.wg.Add(1)
	c.mu.Unlock()

	go c.dispatch(userID, text)
	return nil
}

func (c *Controller) dispatch(userID, text string) {
	defer c.wg.Done()

	reply, err := c.gateway.PostUserInput(c.ctx, userID, text)
	if err != nil {
		if c.ctx.Err() == nil {
			log.Printf("[conversation] chatbot response error session=%s: %v", c.session.ID, err)
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		c.pending--
		c.lastError = ErrorChatUnavailable
		c.touchLocked()
		c.publishLocked(chat.EventError)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.delay == 0 {
		c.appendReplyLocked(reply)
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		delete(c.timers, timer)
		c.appendReplyLocked(reply)
	})
	c.timers[timer] = struct{}{}
}

func (c *Controller) appendReplyLocked(reply string) {
	c.messages = append(c.messages, chat.Message{
		Sender:    chat.SenderBot,
		Text:      reply,
		CreatedAt: c.now().UTC(),
	})
	c.pending--
	c.touchLocked()
	c.publishLocked(chat.EventMessage)
}

// OpenModal shows the feedback or rating overlay, replacing any other.
func (c *Controller) OpenModal(modal chat.Modal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.modal = modal
	c.touchLocked()
	c.publishLocked(chat.EventModal)
	return nil
}

// CloseModal hides any open overlay. The feedback draft is kept.
func (c *Controller) CloseModal() error {
	return c.OpenModal(chat.ModalNone)
}

// SetFeedback updates the feedback draft.
func (c *Controller) SetFeedback(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.feedback = text
	c.touchLocked()
	c.publishLocked(chat.EventInput)
	return nil
}

// SubmitFeedback sends text as feedback. Blank text is rejected locally with a
// prompt. On success the draft is cleared and the modal closed; on failure both
// stay as they were and the error is surfaced in the state.
func (c *Controller) SubmitFeedback(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		c.notice = NoticeFeedbackRequired
		c.touchLocked()
		c.publishLocked(chat.EventNotice)
		c.mu.Unlock()
		return ErrEmptyFeedback
	}
	c.feedback = text
	c.feedbackStatus = chat.SubmissionPending
	c.touchLocked()
	c.publishLocked(chat.EventState)
	userID := c.session.UserID
	c.mu.Unlock()

	err := c.gateway.SubmitFeedback(ctx, userID, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.touchLocked()
	if err != nil {
		log.Printf("[conversation] feedback submission error session=%s: %v", c.session.ID, err)
		c.feedbackStatus = chat.SubmissionFailed
		c.lastError = ErrorFeedbackFailed
		c.publishLocked(chat.EventError)
		return fmt.Errorf("submit feedback: %w", err)
	}

	c.feedbackStatus = chat.SubmissionConfirmed
	c.feedback = ""
	if c.modal == chat.ModalFeedback {
		c.modal = chat.ModalNone
	}
	c.notice = NoticeFeedbackThanks
	c.publishLocked(chat.EventNotice)
	return nil
}

// SubmitRating records the rating and closes the rating modal before the
// gateway call is made. A failed call does not reopen the modal; it is
// reported through the rating status and the visible error instead.
func (c *Controller) SubmitRating(ctx context.Context, value int) error {
	if !chat.ValidRating(value) {
		return ErrInvalidRating
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.rating = value
	if c.modal == chat.ModalRating {
		c.modal = chat.ModalNone
	}
	c.ratingStatus = chat.SubmissionPending
	c.touchLocked()
	c.publishLocked(chat.EventModal)
	userID := c.session.UserID
	c.mu.Unlock()

	err := c.gateway.SubmitRating(ctx, userID, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.touchLocked()
	if err != nil {
		log.Printf("[conversation] rating submission error session=%s: %v", c.session.ID, err)
		c.ratingStatus = chat.SubmissionFailed
		c.lastError = ErrorRatingFailed
		c.publishLocked(chat.EventError)
		return fmt.Errorf("submit rating: %w", err)
	}

	c.ratingStatus = chat.SubmissionConfirmed
	c.notice = NoticeRatingThanks
	c.publishLocked(chat.EventNotice)
	return nil
}

// DismissNotice clears the notice line.
func (c *Controller) DismissNotice() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.notice = ""
	c.touchLocked()
	c.publishLocked(chat.EventNotice)
	return nil
}

// DismissError clears the visible failure indicator.
func (c *Controller) DismissError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.lastError = ""
	c.touchLocked()
	c.publishLocked(chat.EventError)
	return nil
}

// Subscribe returns a channel receiving an Event after every mutation, starting
// with the current state. A slow reader only ever misses intermediate events,
// never the latest one. The channel is closed by cancel or Close.
func (c *Controller) Subscribe() (<-chan chat.Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan chat.Event, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch
	ch <- chat.Event{Kind: chat.EventState, State: c.snapshotLocked()}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops pending reply timers, cancels in-flight requests and closes all
// subscriptions. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for timer := range c.timers {
		timer.Stop()
	}
	c.timers = nil
	for id, ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, id)
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) touchLocked() {
	c.lastActive = c.now()
}

func (c *Controller) publishLocked(kind chat.EventKind) {
	if len(c.subscribers) == 0 {
		return
	}
	event := chat.Event{Kind: kind, State: c.snapshotLocked()}
	for _, ch := range c.subscribers {
		select {
		case ch <- event:
			continue
		default:
		}
		// Replace the stale event the reader has not consumed yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}

func (c *Controller) snapshotLocked() chat.State {
	return chat.State{
		Session:        c.session,
		Greeting:       c.session.Greeting(),
		Messages:       append([]chat.Message(nil), c.messages...),
		Composing:      c.pending > 0,
		Pending:        c.pending,
		Input:          c.input,
		Modal:          c.modal,
		Feedback:       c.feedback,
		FeedbackStatus: c.feedbackStatus,
		Rating:         c.rating,
		RatingStatus:   c.ratingStatus,
		Notice:         c.notice,
		LastError:      c.lastError,
	}
}
