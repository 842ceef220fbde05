package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptradoor.backend/internal/config"
	"ptradoor.backend/pkg/jwt"
)

func testDeps(out *bytes.Buffer) adminTokenDeps {
	return adminTokenDeps{
		loadEnv: func() error { return errors.New("no .env") },
		loadCfg: func() *config.Config {
			cfg := config.Load()
			cfg.JWT.Secret = "test-secret"
			cfg.JWT.Issuer = "ptradoor-test"
			cfg.JWT.Expiry = time.Hour
			return cfg
		},
		now: func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		out: out,
	}
}

func tokenFrom(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "ADMIN_TOKEN=") {
			return strings.TrimPrefix(line, "ADMIN_TOKEN=")
		}
	}
	t.Fatalf("no token in output: %q", output)
	return ""
}

func TestResolveSubject(t *testing.T) {
	_, err := resolveSubject("   ")
	assert.Error(t, err)

	got, err := resolveSubject(" alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
}

func TestRunAdminToken_SignsAdminToken(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAdminToken([]string{"-subject", "alice"}, testDeps(&out)))

	assert.Contains(t, out.String(), "subject=alice\n")
	assert.Contains(t, out.String(), "expires_at=2026-03-01T13:00:00Z\n")

	claims, err := jwt.NewJWTService("test-secret", "ptradoor-test", time.Hour).ValidateToken(tokenFrom(t, out.String()))
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "alice", claims.Subject)
}

func TestRunAdminToken_TTLOverride(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAdminToken([]string{"-ttl", "15m"}, testDeps(&out)))

	assert.Contains(t, out.String(), "subject=ops\n")
	assert.Contains(t, out.String(), "expires_at=2026-03-01T12:15:00Z\n")
}

func TestRunAdminToken_RejectsBadFlags(t *testing.T) {
	cases := map[string][]string{
		"unknown flag":  {"-user-id", "x"},
		"empty subject": {"-subject", ""},
		"negative ttl":  {"-ttl", "-1m"},
		"bad duration":  {"-ttl", "soon"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, runAdminToken(args, testDeps(&out)))
			assert.NotContains(t, out.String(), "ADMIN_TOKEN=")
		})
	}
}

func TestMain_ExitsOnBadFlag(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_ADMIN_TOKEN") == "1" {
		os.Args = []string{"admin-token", "-ttl", "-5s"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMain_ExitsOnBadFlag")
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_ADMIN_TOKEN=1")
	if err := cmd.Run(); err == nil {
		t.Fatal("expected helper process to fail on a negative ttl")
	}
}
