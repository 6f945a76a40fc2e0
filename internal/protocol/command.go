package protocol

// Command identifies a request sent by a client. Using a closed enum rather
// than raw strings means the dispatcher's switch can be exhaustive and an
// unhandled command is caught when the code is written, not at runtime.
type Command int

const (
	// CommandInvalid is the zero value returned for any token not in the
	// protocol. The dispatcher answers it with a generic error.
	CommandInvalid Command = iota
	CommandLogin
	CommandLogout
	CommandGetScore
	CommandGetHighscore
	CommandGetQuestion
	CommandSendAnswer
	CommandGetLoggedUsers
)

// Client request tokens as they appear in the command field.
const (
	tokenLogin          = "LOGIN"
	tokenLogout         = "LOGOUT"
	tokenGetScore       = "MY_SCORE"
	tokenGetHighscore   = "HIGHSCORE"
	tokenGetQuestion    = "GET_QUESTION"
	tokenSendAnswer     = "SEND_ANSWER"
	tokenGetLoggedUsers = "LOGGED"
)

// Server response tokens.
const (
	ResponseLoginOK       = "LOGIN_OK"
	ResponseYourScore     = "YOUR_SCORE"
	ResponseAllScore      = "ALL_SCORE"
	ResponseYourQuestion  = "YOUR_QUESTION"
	ResponseCorrectAnswer = "CORRECT_ANSWER"
	ResponseWrongAnswer   = "WRONG_ANSWER"
	ResponseLoggedAnswer  = "LOGGED_ANSWER"
	ResponseError         = "ERROR"
)

var commandTokens = map[string]Command{
	tokenLogin:          CommandLogin,
	tokenLogout:         CommandLogout,
	tokenGetScore:       CommandGetScore,
	tokenGetHighscore:   CommandGetHighscore,
	tokenGetQuestion:    CommandGetQuestion,
	tokenSendAnswer:     CommandSendAnswer,
	tokenGetLoggedUsers: CommandGetLoggedUsers,
}

var commandNames = map[Command]string{
	CommandInvalid:        "INVALID",
	CommandLogin:          tokenLogin,
	CommandLogout:         tokenLogout,
	CommandGetScore:       tokenGetScore,
	CommandGetHighscore:   tokenGetHighscore,
	CommandGetQuestion:    tokenGetQuestion,
	CommandSendAnswer:     tokenSendAnswer,
	CommandGetLoggedUsers: tokenGetLoggedUsers,
}

// ParseCommand maps a command field token to its Command. Unknown tokens
// return CommandInvalid.
func ParseCommand(token string) Command {
	if cmd, ok := commandTokens[token]; ok {
		return cmd
	}
	return CommandInvalid
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "INVALID"
}

// Message is one decoded wire message. Command is the parsed client command
// (CommandInvalid for anything else); Token preserves the raw command field,
// which is what a client needs to interpret server replies.
type Message struct {
	Command Command
	Token   string
	Payload string
}

// Reply is one server response before encoding. Command is one of the
// Response* tokens.
type Reply struct {
	Command string
	Payload string
}
