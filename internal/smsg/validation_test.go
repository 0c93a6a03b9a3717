package smsg_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{name: "simple", username: "alice"},
		{name: "digits and symbols", username: "bob_2-x.y"},
		{name: "mixed case", username: "Alice"},
		{name: "max length", username: strings.Repeat("a", smsg.MaxUsernameLen)},
		{name: "empty", username: "", wantErr: smsg.ErrEmptyUsername},
		{name: "whitespace only", username: "   ", wantErr: smsg.ErrEmptyUsername},
		{name: "too long", username: strings.Repeat("a", smsg.MaxUsernameLen+1), wantErr: smsg.ErrInvalidUsername},
		{name: "path separator", username: "../etc", wantErr: smsg.ErrInvalidUsername},
		{name: "slash", username: "a/b", wantErr: smsg.ErrInvalidUsername},
		{name: "leading dot", username: ".hidden", wantErr: smsg.ErrInvalidUsername},
		{name: "inner space", username: "al ice", wantErr: smsg.ErrInvalidUsername},
		{name: "shell metachar", username: "a;rm", wantErr: smsg.ErrInvalidUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := smsg.ValidateUsername(tt.username)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, smsg.IsValidation(err), "IsValidation(%v)", err)
		})
	}
}
