package smsg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aymenrakics/Secure-Messaging-System/internal/database"
	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
	"github.com/aymenrakics/Secure-Messaging-System/internal/testutil"
)

type testEnv struct {
	svc   *smsg.MessagingService
	gw    *smsg.CipherGateway
	db    *database.SQLiteDatabase
	tool  *testutil.StubTool
	keys  *smsg.KeyStore
	clock *testutil.StubClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithTimeout(t, time.Second)
}

func newTestEnvWithTimeout(t *testing.T, timeout time.Duration) *testEnv {
	t.Helper()
	clock := testutil.FixedClock()
	db := testutil.NewTestDatabase(t, clock)
	keys := testutil.NewTestKeyStore(t, clock)
	tool := testutil.NewStubTool()
	gw := smsg.NewCipherGateway(keys, tool, timeout, smsg.NewNopLogger())

	return &testEnv{
		svc:   smsg.NewMessagingService(db, gw, smsg.NewNopLogger()),
		gw:    gw,
		db:    db,
		tool:  tool,
		keys:  keys,
		clock: clock,
	}
}

func (e *testEnv) register(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := e.svc.Register(context.Background(), name)
		require.NoError(t, err, "Register(%q)", name)
	}
}

func (e *testEnv) login(t *testing.T, name string) *smsg.Session {
	t.Helper()
	sess, err := e.svc.Login(context.Background(), name)
	require.NoError(t, err, "Login(%q)", name)
	return sess
}

// assertTempEmpty fails if any crypto artifact was left in the temp directory.
func (e *testEnv) assertTempEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.keys.TempDir())
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	require.Empty(t, names, "temp dir not empty")
}
