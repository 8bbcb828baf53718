package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/metrics"
	"github.com/rl1809/accommodator/internal/port"
)

const clearTimeout = 2 * time.Second

var errNoPending = errors.New("confirmation stage without pending reservation")

var affirmative = map[string]bool{
	"yes":  true,
	"y":    true,
	"yeah": true,
	"sure": true,
	"ok":   true,
	"okay": true,
}

type stageHandler func(ctx context.Context, msg domain.Message, state domain.ConversationState) (domain.ConversationState, Reply, error)

// Engine runs the booking conversation, one message at a time per user.
type Engine struct {
	catalog  port.CatalogRepository
	users    port.UserRepository
	states   port.StateRepository
	locker   port.Locker
	bookings *ReservationService
	log      logrus.FieldLogger

	stages map[domain.Stage]stageHandler
	newID  func() string
	now    func() time.Time
}

func NewEngine(catalog port.CatalogRepository, users port.UserRepository, states port.StateRepository, locker port.Locker, bookings *ReservationService, log logrus.FieldLogger) *Engine {
	e := &Engine{
		catalog:  catalog,
		users:    users,
		states:   states,
		locker:   locker,
		bookings: bookings,
		log:      log,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	e.stages = map[domain.Stage]stageHandler{
		domain.StageAwaitingSelection:    e.selectUnit,
		domain.StageAwaitingDates:        e.enterDates,
		domain.StageAwaitingConfirmation: e.confirm,
	}
	return e
}

// Handle processes msg against the sender's conversation state and persists
// the resulting state. It never returns an error and never panics: failures
// produce a ReplyFailure and reset the flow when the user's lock is held.
func (e *Engine) Handle(ctx context.Context, msg domain.Message) (reply Reply) {
	var release func()
	stage := domain.StageIdle

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			if release == nil {
				reply = e.abort(msg, err)
			} else {
				reply = e.fail(ctx, msg, stage, err)
			}
		}
		if release != nil {
			release()
		}
	}()

	unlock, err := e.locker.Acquire(ctx, userLockKey(msg.UserID))
	if err != nil {
		return e.abort(msg, fmt.Errorf("lock conversation: %w", err))
	}
	release = unlock

	state, err := e.states.GetState(ctx, msg.UserID)
	if err != nil {
		return e.fail(ctx, msg, stage, fmt.Errorf("get state: %w", err))
	}
	stage = state.Stage

	next, reply, err := e.transition(ctx, msg, state)
	if err != nil {
		return e.fail(ctx, msg, stage, err)
	}

	if err := e.persist(ctx, msg.UserID, next); err != nil {
		return e.fail(ctx, msg, stage, fmt.Errorf("save state: %w", err))
	}

	reply.Stage = next.Stage
	metrics.MessagesTotal.WithLabelValues(stage.String(), reply.Kind.String()).Inc()
	return reply
}

func (e *Engine) transition(ctx context.Context, msg domain.Message, state domain.ConversationState) (domain.ConversationState, Reply, error) {
	switch ParseCommand(msg.Text) {
	case CommandSearch:
		return e.search(ctx)
	case CommandCancel:
		return domain.ConversationState{}, Reply{Kind: ReplyCancelled}, nil
	case CommandStart:
		reply, err := e.start(ctx, msg)
		return state, reply, err
	case CommandReservations:
		views, err := e.bookings.ListForUser(ctx, msg.UserID)
		if err != nil {
			return state, Reply{}, fmt.Errorf("list reservations: %w", err)
		}
		return state, Reply{Kind: ReplyReservations, Reservations: views}, nil
	case CommandHelp, CommandUnknown:
		return state, Reply{Kind: ReplyHelp}, nil
	}

	handler, ok := e.stages[state.Stage]
	if !ok {
		return state, Reply{Kind: ReplyNotInFlow}, nil
	}
	return handler(ctx, msg, state)
}

func (e *Engine) start(ctx context.Context, msg domain.Message) (Reply, error) {
	profile := domain.User{
		PlatformID: msg.UserID,
		FirstName:  msg.FirstName,
		LastName:   msg.LastName,
		Username:   msg.Username,
		CreatedAt:  e.now(),
	}

	existing, err := e.users.GetByPlatformID(ctx, msg.UserID)
	if err != nil {
		return Reply{}, fmt.Errorf("get user: %w", err)
	}
	if existing == nil {
		if err := e.users.CreateUser(ctx, profile); err != nil {
			return Reply{}, fmt.Errorf("create user: %w", err)
		}
		e.log.WithField("user_id", msg.UserID).Info("registered user")
	}

	return Reply{Kind: ReplyWelcome, DisplayName: profile.DisplayName()}, nil
}

func (e *Engine) search(ctx context.Context) (domain.ConversationState, Reply, error) {
	units, err := e.catalog.ListAvailable(ctx)
	if err != nil {
		return domain.ConversationState{}, Reply{}, fmt.Errorf("list units: %w", err)
	}
	next := domain.ConversationState{Stage: domain.StageAwaitingSelection}
	return next, Reply{Kind: ReplyCatalog, Units: units}, nil
}

func (e *Engine) selectUnit(ctx context.Context, msg domain.Message, state domain.ConversationState) (domain.ConversationState, Reply, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
	if err != nil {
		return state, Reply{Kind: ReplyInvalidUnit}, nil
	}

	unit, err := e.catalog.GetUnit(ctx, id)
	if err != nil {
		return state, Reply{}, fmt.Errorf("get unit %d: %w", id, err)
	}
	if unit == nil {
		return state, Reply{Kind: ReplyInvalidUnit}, nil
	}

	next := domain.ConversationState{Stage: domain.StageAwaitingDates, UnitID: unit.ID}
	return next, Reply{Kind: ReplyAskDates, Unit: unit}, nil
}

func (e *Engine) enterDates(ctx context.Context, msg domain.Message, state domain.ConversationState) (domain.ConversationState, Reply, error) {
	dates, ok := parseDateRange(msg.Text)
	if !ok {
		return state, Reply{Kind: ReplyInvalidDates}, nil
	}

	unit, err := e.catalog.GetUnit(ctx, state.UnitID)
	if err != nil {
		return state, Reply{}, fmt.Errorf("get unit %d: %w", state.UnitID, err)
	}
	if unit == nil {
		return state, Reply{}, fmt.Errorf("selected unit %d: %w", state.UnitID, ErrUnitNotFound)
	}

	pending := domain.Reservation{
		ID:     e.newID(),
		UnitID: unit.ID,
		UserID: msg.UserID,
		Dates:  dates,
	}
	next := domain.ConversationState{
		Stage:   domain.StageAwaitingConfirmation,
		UnitID:  unit.ID,
		Pending: &pending,
	}
	return next, Reply{Kind: ReplyConfirmPrompt, Unit: unit, Pending: &pending}, nil
}

// confirm treats every answer outside the affirmative set as a decline.
func (e *Engine) confirm(ctx context.Context, msg domain.Message, state domain.ConversationState) (domain.ConversationState, Reply, error) {
	if state.Pending == nil {
		return state, Reply{}, errNoPending
	}

	idle := domain.ConversationState{}
	answer := strings.ToLower(strings.TrimSpace(msg.Text))
	if !affirmative[answer] {
		return idle, Reply{Kind: ReplyDeclined, Pending: state.Pending}, nil
	}

	err := e.bookings.Confirm(ctx, *state.Pending)
	if err == nil {
		e.log.WithFields(logrus.Fields{
			"user_id":        msg.UserID,
			"unit_id":        state.Pending.UnitID,
			"reservation_id": state.Pending.ID,
		}).Info("reservation committed")
		return idle, Reply{Kind: ReplyConfirmed, Pending: state.Pending}, nil
	}

	if code := RejectCode(err); code != "" {
		return idle, Reply{Kind: ReplyRejected, Code: code, Pending: state.Pending}, nil
	}
	return state, Reply{}, err
}

func (e *Engine) persist(ctx context.Context, userID int64, state domain.ConversationState) error {
	if state.IsIdle() {
		return e.states.ClearState(ctx, userID)
	}
	return e.states.SaveState(ctx, userID, state)
}

// abort answers without touching stored state, used when the user's lock is
// not held and any write would race the holder.
func (e *Engine) abort(msg domain.Message, err error) Reply {
	e.log.WithError(err).WithField("user_id", msg.UserID).Error("conversation failed before locking")
	metrics.FlowFailures.Inc()
	return Reply{Kind: ReplyFailure, StateKept: true}
}

func (e *Engine) fail(ctx context.Context, msg domain.Message, stage domain.Stage, err error) Reply {
	e.log.WithError(err).WithFields(logrus.Fields{
		"user_id": msg.UserID,
		"stage":   stage.String(),
	}).Error("conversation failed")
	metrics.FlowFailures.Inc()

	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clearTimeout)
	defer cancel()
	if clearErr := e.states.ClearState(clearCtx, msg.UserID); clearErr != nil {
		e.log.WithError(clearErr).WithField("user_id", msg.UserID).Error("failed to reset conversation")
	}

	return Reply{Kind: ReplyFailure, Stage: domain.StageIdle}
}

// parseDateRange accepts exactly "YYYY-MM-DD YYYY-MM-DD" with start <= end.
func parseDateRange(text string) (domain.DateRange, bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return domain.DateRange{}, false
	}

	start, err := domain.ParseDate(fields[0])
	if err != nil {
		return domain.DateRange{}, false
	}
	end, err := domain.ParseDate(fields[1])
	if err != nil {
		return domain.DateRange{}, false
	}

	dates, err := domain.NewDateRange(start, end)
	if err != nil {
		return domain.DateRange{}, false
	}
	return dates, true
}

func userLockKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
