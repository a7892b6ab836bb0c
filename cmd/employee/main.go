package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"creativelab/internal/auth"
	"creativelab/internal/infra"
	"creativelab/internal/sqlinline"
)

// Seeds or updates an employee account with a bcrypt password hash.
func main() {
	var (
		emailFlag    string
		nameFlag     string
		passwordFlag string
	)
	flag.StringVar(&emailFlag, "email", "", "Employee email")
	flag.StringVar(&nameFlag, "name", "", "Display name")
	flag.StringVar(&passwordFlag, "password", "", "Password (fallbacks to EMPLOYEE_PASSWORD)")
	flag.Parse()

	email := strings.ToLower(strings.TrimSpace(emailFlag))
	if email == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		os.Exit(1)
	}
	password := strings.TrimSpace(passwordFlag)
	if password == "" {
		password = strings.TrimSpace(os.Getenv("EMPLOYEE_PASSWORD"))
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "password is required via -password or EMPLOYEE_PASSWORD")
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := zerolog.New(os.Stderr)
	if err := infra.ApplyMigrations(pool, logger); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		os.Exit(1)
	}

	runner := infra.NewSQLRunner(pool, logger)
	if _, err := runner.Exec(ctx, sqlinline.QUpsertEmployee, email, strings.TrimSpace(nameFlag), hash); err != nil {
		fmt.Fprintf(os.Stderr, "upsert employee: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("employee %s configured\n", email)
}
