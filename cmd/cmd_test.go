package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"festival-tickets/config"
	"festival-tickets/internal/store/pbstore"

	"github.com/hibiken/asynq"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	cmd := newOperatorCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOperatorHash(t *testing.T) {
	out, err := run(t, "hash", "gate-pass")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("gate-pass")))

	_, err = run(t, "hash")
	assert.Error(t, err)
}

func TestOperatorCreate(t *testing.T) {
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	defer app.Cleanup()

	cmd := newOperatorCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"create", "--email", "gate@example.com", "--password", "gate-pass-123"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "created operator gate@example.com (admin)")

	op, err := pbstore.New(app).Authenticate(context.Background(), "gate@example.com", "gate-pass-123")
	require.NoError(t, err)
	assert.Equal(t, "admin", op.Role)
}

func TestOperatorCreate_RequiresFlags(t *testing.T) {
	_, err := run(t, "create", "--email", "gate@example.com")
	assert.Error(t, err)
}

func TestAsynqRedisOpt(t *testing.T) {
	opt := asynqRedisOpt(&config.Config{RedisURL: "localhost:6379", RedisPassword: "pw", RedisDB: 2})
	assert.Equal(t, asynq.RedisClientOpt{Addr: "localhost:6379", Password: "pw", DB: 2}, opt)

	opt = asynqRedisOpt(&config.Config{RedisURL: "redis://:secret@cache:6380/1"})
	client, ok := opt.(asynq.RedisClientOpt)
	require.True(t, ok)
	assert.Equal(t, "cache:6380", client.Addr)
	assert.Equal(t, "secret", client.Password)
	assert.Equal(t, 1, client.DB)
}

func TestNewPublishers(t *testing.T) {
	pubs, kafka := newPublishers(&config.Config{})
	assert.Empty(t, pubs)
	assert.False(t, kafka.Enabled())

	pubs, kafka = newPublishers(&config.Config{
		PubNubPublishKey:   "pub-c-1",
		PubNubSubscribeKey: "sub-c-1",
		PubNubUserID:       "festival-tickets",
		PubNubChannel:      "gate-events",
		KafkaBrokers:       []string{"localhost:9092"},
		KafkaTopicTicket:   "festival.tickets",
	})
	assert.Len(t, pubs, 2)
	assert.True(t, kafka.Enabled())
	assert.NoError(t, kafka.Close())
}
