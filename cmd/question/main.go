// This command manages the question bank in the configured server database.
// Questions can be added one at a time interactively or in bulk from a JSON
// file of the form:
//
//	[{"text": "...", "options": ["a", "b", "c", "d"], "answer": 2}, ...]
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"gorm.io/gorm"

	"github.com/openquiz/triviad/internal/core"
	"github.com/openquiz/triviad/internal/core/data"
)

var (
	configFlag = flag.String("config", "./", "Path to the directory containing the server config file")
	add        = flag.Bool("add", false, "Add a question interactively.")
	list       = flag.Bool("list", false, "List all questions.")
	seedFile   = flag.String("seed", "", "Load questions in bulk from a JSON file.")
	help       = flag.Bool("help", false, "Print this usage info.")
)

type questionRecord struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

func main() {
	flag.Parse()

	if help != nil && *help {
		flag.Usage()
		os.Exit(0)
	}

	config := core.LoadConfig(*configFlag)
	db, err := data.Initialize(config)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := data.Shutdown(db); err != nil {
			fmt.Println(err.Error())
		}
	}()

	retCode := 0
	switch {
	case add != nil && *add:
		if err := addQuestion(db); err != nil {
			fmt.Println(err.Error())
			retCode = 1
		}
	case list != nil && *list:
		if err := listQuestions(db); err != nil {
			fmt.Println(err.Error())
			retCode = 1
		}
	case seedFile != nil && *seedFile != "":
		if err := seedQuestions(db, *seedFile); err != nil {
			fmt.Println(err.Error())
			retCode = 1
		}
	default:
		flag.Usage()
		retCode = 1
	}
	os.Exit(retCode)
}

func scanInput(prompt string) string {
	fmt.Printf("%s: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return scanner.Text()
}

func addQuestion(db *gorm.DB) error {
	record := questionRecord{Text: scanInput("Question")}
	for i := 1; i <= data.NumberOfOptions; i++ {
		record.Options = append(record.Options, scanInput(fmt.Sprintf("Option %d", i)))
	}

	answer, err := strconv.Atoi(scanInput(fmt.Sprintf("Correct option (1-%d)", data.NumberOfOptions)))
	if err != nil {
		return fmt.Errorf("the correct option must be a number: %w", err)
	}
	record.Answer = answer

	return createQuestion(db, record)
}

func listQuestions(db *gorm.DB) error {
	questions, err := data.AllQuestions(db)
	if err != nil {
		return fmt.Errorf("failed to list questions: %w", err)
	}
	for _, q := range questions {
		fmt.Printf("%d\t%s\n", q.ID, q.Text)
		for i, option := range q.Options() {
			marker := " "
			if i+1 == q.Answer {
				marker = "*"
			}
			fmt.Printf("\t%s %d. %s\n", marker, i+1, option)
		}
	}
	return nil
}

func seedQuestions(db *gorm.DB, filename string) error {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var records []questionRecord
	if err := json.Unmarshal(contents, &records); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	for i, record := range records {
		if err := createQuestion(db, record); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	fmt.Printf("seeded %d questions\n", len(records))
	return nil
}

func createQuestion(db *gorm.DB, record questionRecord) error {
	if len(record.Options) != data.NumberOfOptions {
		return fmt.Errorf("expected %d options, got %d", data.NumberOfOptions, len(record.Options))
	}
	if record.Answer < 1 || record.Answer > data.NumberOfOptions {
		return fmt.Errorf("the correct option must be between 1 and %d", data.NumberOfOptions)
	}

	question := &data.Question{
		Text:    record.Text,
		Option1: record.Options[0],
		Option2: record.Options[1],
		Option3: record.Options[2],
		Option4: record.Options[3],
		Answer:  record.Answer,
	}
	if err := data.CreateQuestion(db, question); err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	fmt.Println("created question with ID:", question.ID)
	return nil
}
