// CLI tool to create a user with a bcrypt-hashed password and an empty profile.
// Works against either backend DB_URL selects.
// Usage: go run ./cmd/create-user
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"nura/go-api/internal/models"
	"nura/go-api/internal/store"
)

type answers struct {
	Username    string
	Email       string
	DisplayName string
	Password    string
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	repo, err := store.Open(ctx, os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	a, err := prompt(bufio.NewReader(os.Stdin), os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	u, err := createUser(ctx, repo, a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("  ID:         %d\n", u.ID)
	fmt.Printf("  Username:   %s\n", u.Username)
	fmt.Printf("  Auth Token: %s\n", u.AuthToken)
}

func prompt(r *bufio.Reader, w io.Writer) (answers, error) {
	ask := func(label string) string {
		fmt.Fprint(w, label)
		line, _ := r.ReadString('\n')
		return strings.TrimSpace(line)
	}
	a := answers{
		Username:    ask("Username: "),
		Email:       ask("Email: "),
		DisplayName: ask("Display name: "),
		Password:    ask("Password: "),
	}
	if a.Username == "" || a.Password == "" {
		return answers{}, fmt.Errorf("username and password are required")
	}
	if a.DisplayName == "" {
		a.DisplayName = a.Username
	}
	return a, nil
}

// createUser hashes the password and stores the user with a static auth token.
func createUser(ctx context.Context, repo store.Repository, a answers) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	return repo.CreateUser(ctx, models.User{
		Username:  a.Username,
		Email:     a.Email,
		Password:  string(hash),
		AuthToken: uuid.New().String(),
	}, a.DisplayName)
}
