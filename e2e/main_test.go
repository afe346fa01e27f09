package e2e_test

import (
	"os"
	"testing"

	"github.com/cpike5/discordbot-sub005/e2e"
)

func TestMain(m *testing.M) {
	code := m.Run()
	e2e.TerminatePostgresForE2E()
	os.Exit(code)
}
