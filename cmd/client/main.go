// This command is a minimal interactive client for the trivia server,
// intended for trying out a running server and for debugging protocol
// changes by hand.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/openquiz/triviad/internal/protocol"
)

var addr = flag.String("addr", fmt.Sprintf("localhost:%d", protocol.DefaultPort), "Address of the trivia server")

func main() {
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Println("failed to connect:", err)
		os.Exit(1)
	}
	defer conn.Close()

	session := &session{
		conn:   conn,
		reader: protocol.NewMessageReader(conn),
		stdin:  bufio.NewScanner(os.Stdin),
	}

	if err := session.login(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	session.menuLoop()
}

type session struct {
	conn   net.Conn
	reader *protocol.MessageReader
	stdin  *bufio.Scanner
}

func (s *session) prompt(label string) string {
	fmt.Printf("%s: ", label)
	s.stdin.Scan()
	return strings.TrimSpace(s.stdin.Text())
}

// roundTrip sends one command and blocks for the server's reply, returning
// the reply's command token and payload.
func (s *session) roundTrip(command, payload string) (string, string, error) {
	message, ok := protocol.BuildMessage(command, payload)
	if !ok {
		return "", "", fmt.Errorf("cannot encode %s message", command)
	}
	if _, err := s.conn.Write([]byte(message)); err != nil {
		return "", "", fmt.Errorf("connection lost: %w", err)
	}

	reply, err := s.reader.ReadMessage()
	if err != nil {
		return "", "", fmt.Errorf("connection lost: %w", err)
	}
	return reply.Token, reply.Payload, nil
}

func (s *session) login() error {
	for {
		username := s.prompt("Username")
		password := s.prompt("Password")

		command, payload, err := s.roundTrip("LOGIN", protocol.JoinFields([]string{username, password}))
		if err != nil {
			return err
		}

		if command == protocol.ResponseLoginOK {
			fmt.Println("Logged in!")
			return nil
		}
		fmt.Println(payload)
	}
}

func (s *session) menuLoop() {
	for {
		fmt.Print(`
p - Play a trivia question
s - Get my score
h - Get highscore
l - Get logged users
q - Quit
`)
		switch s.prompt("Your choice") {
		case "p":
			s.playQuestion()
		case "s":
			s.simpleRequest("MY_SCORE", "Your score")
		case "h":
			s.simpleRequest("HIGHSCORE", "Highscore")
		case "l":
			s.simpleRequest("LOGGED", "Logged users")
		case "q":
			s.logout()
			return
		default:
			fmt.Println("Unknown choice")
		}
	}
}

func (s *session) simpleRequest(command, label string) {
	replyCommand, payload, err := s.roundTrip(command, "")
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	if replyCommand == protocol.ResponseError {
		fmt.Println(payload)
		return
	}
	fmt.Printf("%s:\n%s\n", label, payload)
}

func (s *session) playQuestion() {
	command, payload, err := s.roundTrip("GET_QUESTION", "")
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	if command != protocol.ResponseYourQuestion {
		fmt.Println(payload)
		return
	}

	fields, ok := protocol.SplitFields(payload, 2+4)
	if !ok {
		fmt.Println("the server sent a malformed question")
		return
	}

	questionID, text, options := fields[0], fields[1], fields[2:]
	fmt.Println(text)
	for i, option := range options {
		fmt.Printf("\t%d. %s\n", i+1, option)
	}

	answer := s.prompt("Your answer (1-4)")
	command, payload, err = s.roundTrip("SEND_ANSWER", protocol.JoinFields([]string{questionID, answer}))
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	switch command {
	case protocol.ResponseCorrectAnswer:
		fmt.Println("Correct!")
	case protocol.ResponseWrongAnswer:
		fmt.Printf("Wrong! The correct answer was %s.\n", payload)
	default:
		fmt.Println(payload)
	}
}

func (s *session) logout() {
	if message, ok := protocol.BuildMessage("LOGOUT", ""); ok {
		_, _ = s.conn.Write([]byte(message))
	}
	fmt.Println("Goodbye!")
}
