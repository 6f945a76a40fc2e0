package internal

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openquiz/triviad/internal/core"
	"github.com/openquiz/triviad/internal/core/auth"
	"github.com/openquiz/triviad/internal/core/data"
	"github.com/openquiz/triviad/internal/game"
	"github.com/openquiz/triviad/internal/protocol"
)

// Let the OS choose the port for us.
const testAddress = "localhost:0"

func startTestServer(t *testing.T, maxConnections int) (*frontend, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}
	if err := db.AutoMigrate(&data.User{}, &data.Question{}, &data.AskedQuestion{}); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}

	if err := data.CreateUser(db, &data.User{
		Username: "alice",
		Password: auth.HashPassword("secret"),
	}); err != nil {
		t.Fatalf("error seeding test user: %v", err)
	}
	if err := data.CreateQuestion(db, &data.Question{
		Text:    "What color is the sky?",
		Option1: "red",
		Option2: "green",
		Option3: "blue",
		Option4: "yellow",
		Answer:  3,
	}); err != nil {
		t.Fatalf("error seeding test question: %v", err)
	}

	cfg := &core.Config{MaxConnections: maxConnections}
	cfg.Game.CorrectAnswerScore = 5
	cfg.Game.HighscoreTableSize = 3

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &frontend{
		Address: testAddress,
		Backend: game.NewServer("TRIVIA", cfg, logger, db),
		Config:  cfg,
		Logger:  logger,
	}

	wg := &sync.WaitGroup{}
	ctx, cancel := context.WithCancel(context.Background())
	if err := f.Start(ctx, wg); err != nil {
		cancel()
		t.Fatalf("failed to start frontend: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	return f, db
}

func dialTestServer(t *testing.T, f *frontend) (net.Conn, *protocol.MessageReader) {
	t.Helper()

	conn, err := net.Dial("tcp", f.ListenAddr().String())
	if err != nil {
		t.Fatalf("failed to connect to %s: %v", f.ListenAddr(), err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn, protocol.NewMessageReader(conn)
}

func sendMessage(t *testing.T, conn net.Conn, command, payload string) {
	t.Helper()

	message, ok := protocol.BuildMessage(command, payload)
	if !ok {
		t.Fatalf("failed to build %s message", command)
	}
	if _, err := conn.Write([]byte(message)); err != nil {
		t.Fatalf("failed to write %s message: %v", command, err)
	}
}

func readReply(t *testing.T, conn net.Conn, reader *protocol.MessageReader) protocol.Message {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	message, err := reader.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read reply: %v", err)
	}
	return message
}

func TestFrontendGameSession(t *testing.T) {
	f, db := startTestServer(t, 0)
	conn, reader := dialTestServer(t, f)

	sendMessage(t, conn, "LOGIN", "alice#secret")
	reply := readReply(t, conn, reader)
	if reply.Token != protocol.ResponseLoginOK {
		t.Fatalf("LOGIN reply = (%s, %q), want LOGIN_OK", reply.Token, reply.Payload)
	}

	sendMessage(t, conn, "MY_SCORE", "")
	reply = readReply(t, conn, reader)
	if reply.Token != protocol.ResponseYourScore || reply.Payload != "0" {
		t.Fatalf("MY_SCORE reply = (%s, %q), want (YOUR_SCORE, \"0\")", reply.Token, reply.Payload)
	}

	sendMessage(t, conn, "GET_QUESTION", "")
	reply = readReply(t, conn, reader)
	if reply.Token != protocol.ResponseYourQuestion {
		t.Fatalf("GET_QUESTION reply = (%s, %q)", reply.Token, reply.Payload)
	}
	fields, ok := protocol.SplitFields(reply.Payload, 6)
	if !ok {
		t.Fatalf("GET_QUESTION payload %q does not have 6 tokens", reply.Payload)
	}

	sendMessage(t, conn, "SEND_ANSWER", protocol.JoinFields([]string{fields[0], "3"}))
	reply = readReply(t, conn, reader)
	if reply.Token != protocol.ResponseCorrectAnswer {
		t.Fatalf("SEND_ANSWER reply = (%s, %q), want CORRECT_ANSWER", reply.Token, reply.Payload)
	}

	sendMessage(t, conn, "MY_SCORE", "")
	reply = readReply(t, conn, reader)
	if reply.Token != protocol.ResponseYourScore || reply.Payload != "5" {
		t.Fatalf("MY_SCORE reply = (%s, %q), want (YOUR_SCORE, \"5\")", reply.Token, reply.Payload)
	}

	user, err := data.FindUser(db, "alice")
	if err != nil {
		t.Fatalf("FindUser() returned an error: %v", err)
	}
	if user.Score != 5 {
		t.Errorf("persisted score = %d, want 5", user.Score)
	}
}

func TestFrontendRejectsUnauthenticated(t *testing.T) {
	f, _ := startTestServer(t, 0)
	conn, reader := dialTestServer(t, f)

	sendMessage(t, conn, "MY_SCORE", "")
	reply := readReply(t, conn, reader)
	if reply.Token != protocol.ResponseError || reply.Payload != "Error: Not logged in!" {
		t.Fatalf("MY_SCORE reply = (%s, %q), want a not-logged-in error", reply.Token, reply.Payload)
	}
}

// Two messages written in a single segment must still produce two replies,
// and a message trickled in one byte at a time must be reassembled.
func TestFrontendMessageReassembly(t *testing.T) {
	f, _ := startTestServer(t, 0)
	conn, reader := dialTestServer(t, f)

	login, _ := protocol.BuildMessage("LOGIN", "alice#secret")
	score, _ := protocol.BuildMessage("MY_SCORE", "")
	if _, err := conn.Write([]byte(login + score)); err != nil {
		t.Fatalf("failed to write coalesced messages: %v", err)
	}

	reply := readReply(t, conn, reader)
	if reply.Token != protocol.ResponseLoginOK {
		t.Fatalf("LOGIN reply = (%s, %q), want LOGIN_OK", reply.Token, reply.Payload)
	}
	reply = readReply(t, conn, reader)
	if reply.Token != protocol.ResponseYourScore {
		t.Fatalf("MY_SCORE reply = (%s, %q), want YOUR_SCORE", reply.Token, reply.Payload)
	}

	for _, b := range []byte(score) {
		if _, err := conn.Write([]byte{b}); err != nil {
			t.Fatalf("failed to write message byte: %v", err)
		}
	}
	reply = readReply(t, conn, reader)
	if reply.Token != protocol.ResponseYourScore {
		t.Fatalf("trickled MY_SCORE reply = (%s, %q), want YOUR_SCORE", reply.Token, reply.Payload)
	}
}

func TestFrontendLogoutClosesConnection(t *testing.T) {
	f, _ := startTestServer(t, 0)
	conn, reader := dialTestServer(t, f)

	sendMessage(t, conn, "LOGIN", "alice#secret")
	reply := readReply(t, conn, reader)
	if reply.Token != protocol.ResponseLoginOK {
		t.Fatalf("LOGIN reply = (%s, %q), want LOGIN_OK", reply.Token, reply.Payload)
	}

	sendMessage(t, conn, "LOGOUT", "")

	// LOGOUT carries no reply; the server just closes the connection.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := reader.ReadMessage(); err != io.EOF {
		t.Fatalf("read after LOGOUT returned %v, want io.EOF", err)
	}

	// Observing EOF means teardown completed, so the session is gone and a
	// fresh connection can log in as the same user.
	conn2, reader2 := dialTestServer(t, f)
	sendMessage(t, conn2, "LOGIN", "alice#secret")
	reply = readReply(t, conn2, reader2)
	if reply.Token != protocol.ResponseLoginOK {
		t.Fatalf("re-LOGIN reply = (%s, %q), want LOGIN_OK", reply.Token, reply.Payload)
	}
}

func TestFrontendConnectionLimit(t *testing.T) {
	f, _ := startTestServer(t, 1)

	conn, reader := dialTestServer(t, f)
	sendMessage(t, conn, "LOGIN", "alice#secret")
	reply := readReply(t, conn, reader)
	if reply.Token != protocol.ResponseLoginOK {
		t.Fatalf("LOGIN reply = (%s, %q), want LOGIN_OK", reply.Token, reply.Payload)
	}

	// The second connection is accepted by the OS but closed by the server
	// before any message is handled.
	conn2, err := net.Dial("tcp", f.ListenAddr().String())
	if err != nil {
		t.Fatalf("failed to connect to %s: %v", f.ListenAddr(), err)
	}
	defer conn2.Close()

	_ = conn2.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn2.Read(buf); err != io.EOF {
		t.Fatalf("read on rejected connection returned %v, want io.EOF", err)
	}
}

// Outbound replies are delivered in the order their triggering messages
// arrived, even across clients.
func TestFrontendReplyOrdering(t *testing.T) {
	f, _ := startTestServer(t, 0)
	conn, reader := dialTestServer(t, f)

	sendMessage(t, conn, "LOGIN", "alice#secret")
	reply := readReply(t, conn, reader)
	if reply.Token != protocol.ResponseLoginOK {
		t.Fatalf("LOGIN reply = (%s, %q), want LOGIN_OK", reply.Token, reply.Payload)
	}

	score, _ := protocol.BuildMessage("MY_SCORE", "")
	logged, _ := protocol.BuildMessage("LOGGED", "")
	high, _ := protocol.BuildMessage("HIGHSCORE", "")
	if _, err := conn.Write([]byte(score + logged + high)); err != nil {
		t.Fatalf("failed to write messages: %v", err)
	}

	want := []string{
		protocol.ResponseYourScore,
		protocol.ResponseLoggedAnswer,
		protocol.ResponseAllScore,
	}
	for i, token := range want {
		reply = readReply(t, conn, reader)
		if reply.Token != token {
			t.Fatalf("reply %d = (%s, %q), want %s", i, reply.Token, reply.Payload, token)
		}
	}
}
