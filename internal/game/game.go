// Package game implements the trivia game logic: the authentication state
// machine and the handlers behind every protocol command.
package game

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openquiz/triviad/internal/core"
	"github.com/openquiz/triviad/internal/core/auth"
	"github.com/openquiz/triviad/internal/core/client"
	"github.com/openquiz/triviad/internal/core/data"
	"github.com/openquiz/triviad/internal/protocol"
)

// Error strings sent to clients. The credential and answer messages are part
// of the wire protocol as far as existing clients are concerned, typos and
// all, so they are not cleaned up here.
const (
	errUnknown          = "ERROR: An unknown error occured."
	errUsernameNotExist = "Error: Username does not exist!"
	errPasswordMismatch = "Error: Password does not match!"
	errInvalidAnswer    = "Error: Invalid answer! Must be a number between 1-4."
	errNotLoggedIn      = "Error: Not logged in!"
	errAlreadyLoggedIn  = "Error: Already logged in!"
	errUserLoggedIn     = "Error: User is already logged in!"
	errNoMoreQuestions  = "Error: No more questions!"
)

const loginPayloadParts = 2
const answerPayloadParts = 2

// Server implements the game backend. All of its mutable state (the session
// table and highscore cache) is only touched from the frontend's event loop.
type Server struct {
	Name   string
	Config *core.Config
	Logger *logrus.Logger
	DB     *gorm.DB

	sessions  *SessionTable
	highscore *highscoreBoard
	rng       *rand.Rand
}

func NewServer(name string, cfg *core.Config, logger *logrus.Logger, db *gorm.DB) *Server {
	return &Server{
		Name:     name,
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		sessions: NewSessionTable(),
		highscore: newHighscoreBoard(
			cfg.Game.HighscoreTableSize,
			time.Duration(cfg.Game.HighscoreCacheSeconds)*time.Second,
		),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Server) Identifier() string {
	return s.Name
}

func (s *Server) Init(_ context.Context) error {
	ids, err := data.QuestionIDs(s.DB)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		s.Logger.Warnf("[%s] question bank is empty; GET_QUESTION will fail until questions are added", s.Name)
	}
	return nil
}

// DropClient releases the client's session during connection teardown.
func (s *Server) DropClient(c *client.Client) {
	s.dropAddr(c.Addr())
}

func (s *Server) dropAddr(addr string) {
	if s.sessions.Logout(addr) {
		s.Logger.Infof("[%s] ended session for %s", s.Name, addr)
	}
}

// Sessions exposes the session table for tests.
func (s *Server) Sessions() *SessionTable {
	return s.sessions
}

// Handle dispatches one decoded client message. Commands that require a
// session are rejected with a protocol error when the client has not logged
// in; they never fault the server.
func (s *Server) Handle(_ context.Context, c *client.Client, msg protocol.Message) (*protocol.Reply, bool) {
	return s.dispatch(c.Addr(), msg)
}

func (s *Server) dispatch(addr string, msg protocol.Message) (*protocol.Reply, bool) {
	switch msg.Command {
	case protocol.CommandLogin:
		return s.handleLogin(addr, msg.Payload), false
	case protocol.CommandLogout:
		return s.handleLogout(addr)
	case protocol.CommandGetScore:
		return s.withSession(addr, s.handleGetScore), false
	case protocol.CommandGetHighscore:
		return s.withSession(addr, func(*data.User) *protocol.Reply { return s.handleGetHighscore() }), false
	case protocol.CommandGetLoggedUsers:
		return s.withSession(addr, func(*data.User) *protocol.Reply { return s.handleGetLoggedUsers() }), false
	case protocol.CommandGetQuestion:
		return s.withSession(addr, s.handleGetQuestion), false
	case protocol.CommandSendAnswer:
		return s.withSession(addr, func(user *data.User) *protocol.Reply {
			return s.handleSendAnswer(user, msg.Payload)
		}), false
	case protocol.CommandInvalid:
		return errorReply(errUnknown), false
	}
	// The switch above is exhaustive over the protocol's commands.
	return errorReply(errUnknown), false
}

// withSession resolves the connection's authenticated user and runs the
// handler, rejecting unauthenticated clients with a protocol error.
func (s *Server) withSession(addr string, handler func(user *data.User) *protocol.Reply) *protocol.Reply {
	username, ok := s.sessions.Lookup(addr)
	if !ok {
		return errorReply(errNotLoggedIn)
	}

	user, err := data.FindUser(s.DB, username)
	if err != nil {
		s.Logger.Errorf("[%s] error looking up user %s: %v", s.Name, username, err)
		return errorReply(errUnknown)
	}
	if user == nil {
		// A session exists for a user the store no longer knows. Users are
		// never deleted during a run, so this is a bug.
		s.Logger.Errorf("[%s] session for %s references unknown user %s", s.Name, addr, username)
		return errorReply(errUnknown)
	}

	return handler(user)
}

func (s *Server) handleLogin(addr string, payload string) *protocol.Reply {
	fields, ok := protocol.SplitFields(payload, loginPayloadParts)
	if !ok {
		return errorReply(errUnknown)
	}
	username, password := fields[0], fields[1]

	if _, ok := s.sessions.Lookup(addr); ok {
		return errorReply(errAlreadyLoggedIn)
	}

	if _, err := auth.VerifyUser(s.DB, username, password); err != nil {
		switch err {
		case auth.ErrUnknownUsername:
			return errorReply(errUsernameNotExist)
		case auth.ErrPasswordMismatch:
			return errorReply(errPasswordMismatch)
		default:
			s.Logger.Errorf("[%s] error verifying credentials for %s: %v", s.Name, username, err)
			return errorReply(errUnknown)
		}
	}

	if !s.Config.Game.AllowDuplicateLogins && s.sessions.IsUserLoggedIn(username) {
		return errorReply(errUserLoggedIn)
	}

	if !s.sessions.Login(addr, username) {
		return errorReply(errAlreadyLoggedIn)
	}

	s.Logger.Infof("[%s] %s logged in as %s", s.Name, addr, username)
	return &protocol.Reply{Command: protocol.ResponseLoginOK}
}

// handleLogout ends the session and asks the frontend to tear the connection
// down. A logout is the one command that is never answered.
func (s *Server) handleLogout(addr string) (*protocol.Reply, bool) {
	if username, ok := s.sessions.Lookup(addr); ok {
		s.Logger.Infof("[%s] %s logged out", s.Name, username)
	}
	return nil, true
}

func (s *Server) handleGetScore(user *data.User) *protocol.Reply {
	return &protocol.Reply{
		Command: protocol.ResponseYourScore,
		Payload: strconv.Itoa(user.Score),
	}
}

func (s *Server) handleGetHighscore() *protocol.Reply {
	table, err := s.highscore.Render(s.DB)
	if err != nil {
		s.Logger.Errorf("[%s] error rendering highscore table: %v", s.Name, err)
		return errorReply(errUnknown)
	}
	return &protocol.Reply{Command: protocol.ResponseAllScore, Payload: table}
}

func (s *Server) handleGetLoggedUsers() *protocol.Reply {
	return &protocol.Reply{
		Command: protocol.ResponseLoggedAnswer,
		Payload: strings.Join(s.sessions.Usernames(), ","),
	}
}

func (s *Server) handleGetQuestion(user *data.User) *protocol.Reply {
	questionID, ok, err := s.pickQuestion(user)
	if err != nil {
		s.Logger.Errorf("[%s] error picking a question: %v", s.Name, err)
		return errorReply(errUnknown)
	}
	if !ok {
		return errorReply(errNoMoreQuestions)
	}

	question, err := data.FindQuestion(s.DB, questionID)
	if err != nil || question == nil {
		s.Logger.Errorf("[%s] error loading question %d: %v", s.Name, questionID, err)
		return errorReply(errUnknown)
	}

	if err := data.MarkQuestionAsked(s.DB, user, questionID); err != nil {
		s.Logger.Errorf("[%s] error marking question %d asked for %s: %v",
			s.Name, questionID, user.Username, err)
		return errorReply(errUnknown)
	}

	options := question.Options()
	return &protocol.Reply{
		Command: protocol.ResponseYourQuestion,
		Payload: protocol.JoinFields([]string{
			strconv.FormatUint(questionID, 10),
			question.Text,
			options[0], options[1], options[2], options[3],
		}),
	}
}

// pickQuestion selects a question id uniformly at random. When the server is
// configured to exclude previously-asked questions, the user's asked-set is
// filtered out first and an exhausted bank reports ok=false.
func (s *Server) pickQuestion(user *data.User) (uint64, bool, error) {
	ids, err := data.QuestionIDs(s.DB)
	if err != nil {
		return 0, false, err
	}

	if s.Config.Game.ExcludeAskedQuestions {
		askedIDs, err := data.QuestionsAsked(s.DB, user)
		if err != nil {
			return 0, false, err
		}
		asked := make(map[uint64]bool, len(askedIDs))
		for _, id := range askedIDs {
			asked[id] = true
		}

		remaining := ids[:0]
		for _, id := range ids {
			if !asked[id] {
				remaining = append(remaining, id)
			}
		}
		ids = remaining
	}

	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[s.rng.Intn(len(ids))], true, nil
}

func (s *Server) handleSendAnswer(user *data.User, payload string) *protocol.Reply {
	fields, ok := protocol.SplitFields(payload, answerPayloadParts)
	if !ok {
		return errorReply(errInvalidAnswer)
	}

	questionID, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return errorReply(errInvalidAnswer)
	}
	answer, err := strconv.Atoi(fields[1])
	if err != nil {
		return errorReply(errInvalidAnswer)
	}

	question, err := data.FindQuestion(s.DB, questionID)
	if err != nil {
		s.Logger.Errorf("[%s] error loading question %d: %v", s.Name, questionID, err)
		return errorReply(errUnknown)
	}
	if question == nil || answer < 1 || answer > data.NumberOfOptions {
		return errorReply(errInvalidAnswer)
	}

	if !question.IsCorrect(answer) {
		return &protocol.Reply{
			Command: protocol.ResponseWrongAnswer,
			Payload: strconv.Itoa(question.Answer),
		}
	}

	if err := data.AddScore(s.DB, user, s.Config.Game.CorrectAnswerScore); err != nil {
		s.Logger.Errorf("[%s] error adding score for %s: %v", s.Name, user.Username, err)
		return errorReply(errUnknown)
	}
	s.highscore.Invalidate()

	return &protocol.Reply{Command: protocol.ResponseCorrectAnswer}
}

func errorReply(message string) *protocol.Reply {
	return &protocol.Reply{Command: protocol.ResponseError, Payload: message}
}
