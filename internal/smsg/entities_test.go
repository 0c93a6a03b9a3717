package smsg_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

func TestUser_PrintingHidesPrivateKey(t *testing.T) {
	u := smsg.NewUser(1, "alice", "keys/alice_public.key", "keys/alice_private.key")

	for _, format := range []string{"%v", "%+v", "%#v", "%s"} {
		assert.NotContains(t, fmt.Sprintf(format, u), "private", "format %q leaks private key reference", format)
	}
	assert.Equal(t, "keys/alice_private.key", u.PrivateKeyRef())
}

func TestMessage_StringHidesCiphertext(t *testing.T) {
	m := smsg.Message{ID: 1, SenderID: 1, RecipientID: 2, Ciphertext: []byte("SECRETBYTES"), SentAt: time.Unix(0, 0)}
	assert.NotContains(t, m.String(), "SECRETBYTES")
}

func TestStats_ReadRate(t *testing.T) {
	tests := []struct {
		name  string
		stats smsg.Stats
		want  float64
	}{
		{name: "nothing received", stats: smsg.Stats{}, want: 0},
		{name: "all read", stats: smsg.Stats{Received: 2, Read: 2}, want: 100},
		{name: "quarter read", stats: smsg.Stats{Received: 4, Read: 1, Unread: 3}, want: 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stats.ReadRate())
		})
	}
}
