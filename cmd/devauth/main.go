// AngelaMos | 2026
// main.go

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/carterperez-dev/taxdesk/internal/auth"
	"github.com/carterperez-dev/taxdesk/internal/config"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

// devauth manages the local signing keys and mints identity tokens shaped
// like the identity provider's.
//
//	devauth keygen
//	devauth mint -sub user_123 -role tax_preparer -permissions '{"payouts":true}'
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "keygen":
		err = keygen(os.Args[2:])
	case "mint":
		err = mint(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("devauth failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: devauth keygen|mint [flags]")
}

func loadIdentity(configPath string) (config.IdentityConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.IdentityConfig{}, err
	}
	return cfg.Identity, nil
}

func keygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	private := fs.String("private", "keys/private.pem", "private key output path")
	public := fs.String("public", "keys/public.pem", "public key output path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := auth.GenerateKeyPair(*private, *public); err != nil {
		return err
	}

	slog.Info("key pair written", "private", *private, "public", *public)
	return nil
}

func mint(args []string) error {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	sub := fs.String("sub", "", "subject (user id)")
	role := fs.String("role", string(rbac.RoleClient), "role claim")
	email := fs.String("email", "", "email claim")
	first := fs.String("first", "", "first name claim")
	last := fs.String("last", "", "last name claim")
	permissions := fs.String("permissions", "", "JSON object of capability overrides")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *sub == "" {
		return errors.New("-sub is required")
	}

	if _, err := rbac.ParseRole(*role); err != nil {
		return err
	}

	var overrides map[string]bool
	if *permissions != "" {
		if err := json.Unmarshal([]byte(*permissions), &overrides); err != nil {
			return fmt.Errorf("parse -permissions: %w", err)
		}
		if _, unknown := rbac.SanitizeOverrides(overrides); len(unknown) > 0 {
			return fmt.Errorf("unknown capabilities: %v", unknown)
		}
	}

	identity, err := loadIdentity(*configPath)
	if err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(identity)
	if err != nil {
		return err
	}

	token, err := issuer.Mint(auth.DevClaims{
		Subject:     *sub,
		Email:       *email,
		FirstName:   *first,
		LastName:    *last,
		Role:        *role,
		Permissions: overrides,
	})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
