package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ptradoor.backend/internal/config"
	"ptradoor.backend/pkg/jwt"
)

type adminTokenDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	now     func() time.Time
	out     io.Writer
}

func defaultAdminTokenDeps() adminTokenDeps {
	return adminTokenDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		now:     time.Now,
		out:     os.Stdout,
	}
}

func resolveSubject(input string) (string, error) {
	subject := strings.TrimSpace(input)
	if subject == "" {
		return "", fmt.Errorf("--subject must not be empty")
	}
	return subject, nil
}

func runAdminToken(args []string, deps adminTokenDeps) error {
	def := defaultAdminTokenDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.now == nil {
		deps.now = def.now
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("admin-token", flag.ContinueOnError)
	subjectFlag := fs.String("subject", "ops", "operator name recorded in the admin audit log")
	ttlFlag := fs.Duration("ttl", 0, "token lifetime (defaults to JWT_EXPIRY)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	subject, err := resolveSubject(*subjectFlag)
	if err != nil {
		return err
	}
	if *ttlFlag < 0 {
		return fmt.Errorf("--ttl must not be negative")
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()

	ttl := cfg.JWT.Expiry
	if *ttlFlag > 0 {
		ttl = *ttlFlag
	}

	token, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, ttl).GenerateAdminToken(subject)
	if err != nil {
		return fmt.Errorf("failed to sign admin token: %w", err)
	}

	_, _ = fmt.Fprintf(deps.out, "subject=%s\n", subject)
	_, _ = fmt.Fprintf(deps.out, "expires_at=%s\n", deps.now().Add(ttl).UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintf(deps.out, "ADMIN_TOKEN=%s\n", token)
	return nil
}

func main() {
	if err := runAdminToken(os.Args[1:], defaultAdminTokenDeps()); err != nil {
		log.Fatal(err)
	}
}
