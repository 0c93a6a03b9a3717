package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aymenrakics/Secure-Messaging-System/internal/config"
)

func TestNewToolFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.CryptoConfig
		want    any
		wantErr bool
	}{
		{name: "exec", cfg: config.CryptoConfig{Type: "exec", ToolPath: "/usr/bin/crypto"}, want: &ExecTool{}},
		{name: "default is exec", cfg: config.CryptoConfig{ToolPath: "crypto"}, want: &ExecTool{}},
		{name: "exec without path", cfg: config.CryptoConfig{Type: "exec"}, wantErr: true},
		{name: "age", cfg: config.CryptoConfig{Type: "age"}, want: &AgeTool{}},
		{name: "test", cfg: config.CryptoConfig{Type: "test"}, want: &TestTool{}},
		{name: "unknown", cfg: config.CryptoConfig{Type: "rot13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewToolFromConfig(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}
