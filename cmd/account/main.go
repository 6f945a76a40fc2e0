// This command is a small convenience tool for manipulating user accounts in
// the configured server database.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/openquiz/triviad/internal/core"
	"github.com/openquiz/triviad/internal/core/auth"
	"github.com/openquiz/triviad/internal/core/data"
)

var (
	configFlag = flag.String("config", "./", "Path to the directory containing the server config file")
	add        = flag.Bool("add", false, "Add a user.")
	list       = flag.Bool("list", false, "List all users and their scores.")
	help       = flag.Bool("help", false, "Print this usage info.")
)

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
		u := scanInput("Username")
		p := scanInput("Password")
		if err := addUser(db, u, p); err != nil {
			fmt.Println(err.Error())
			retCode = 1
		}
	case list != nil && *list:
		if err := listUsers(db); err != nil {
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

func addUser(db *gorm.DB, username, password string) error {
	user, err := auth.CreateUser(db, username, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Println("created user with ID:", user.ID)
	return nil
}

func listUsers(db *gorm.DB) error {
	users, err := data.AllUsers(db)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, user := range users {
		fmt.Printf("%d\t%s\t%d\n", user.ID, user.Username, user.Score)
	}
	return nil
}
