// Command vdb-useradd provisions an account with a hashed password and role
// set. Accounts are created out-of-band; the server itself never writes to
// the credential store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/term"

	pkgcrypto "github.com/openhrm/victimdb/internal/crypto"
	"github.com/openhrm/victimdb/internal/migrate"
	"github.com/openhrm/victimdb/internal/model"
	"github.com/openhrm/victimdb/internal/repository/postgres"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("DATABASE_DSN"), "PostgreSQL DSN")
	username := flag.String("username", "", "account username (required)")
	roles := flag.String("roles", "", "comma-separated roles: admin, case_manager, analyst, viewer (required)")
	flag.Parse()

	if *username == "" || *roles == "" || *dsn == "" {
		flag.Usage()
		os.Exit(2)
	}

	var roleSet []model.Role
	for _, s := range strings.Split(*roles, ",") {
		r := model.Role(strings.TrimSpace(s))
		if !r.Valid() {
			fmt.Fprintf(os.Stderr, "unknown role %q\n", r)
			os.Exit(2)
		}
		roleSet = append(roleSet, r)
	}

	fmt.Fprint(os.Stderr, "password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil || len(password) == 0 {
		fmt.Fprintln(os.Stderr, "useradd: empty password")
		os.Exit(2)
	}

	ctx := context.Background()
	if err := migrate.Up(ctx, *dsn); err != nil {
		fmt.Fprintln(os.Stderr, "useradd: migrate:", err)
		os.Exit(1)
	}
	db, err := postgres.New(ctx, *dsn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "useradd:", err)
		os.Exit(1)
	}
	defer db.Close()

	id, err := uuid.NewV4()
	if err != nil {
		fmt.Fprintln(os.Stderr, "useradd:", err)
		os.Exit(1)
	}
	salt, err := pkgcrypto.RandBytes(pkgcrypto.SaltLen)
	if err != nil {
		fmt.Fprintln(os.Stderr, "useradd:", err)
		os.Exit(1)
	}

	u := &model.User{
		ID:       id,
		Username: *username,
		PwdHash:  pkgcrypto.HashPassword(password, salt),
		SaltAuth: salt,
		Roles:    roleSet,
		IsActive: true,
	}
	if err := postgres.NewUserRepo(db).Create(ctx, u); err != nil {
		fmt.Fprintln(os.Stderr, "useradd:", err)
		os.Exit(1)
	}
	fmt.Printf("created %s (%s)\n", u.Username, *roles)
}
