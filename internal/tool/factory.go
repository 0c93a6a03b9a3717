package tool

import (
	"fmt"

	"github.com/aymenrakics/Secure-Messaging-System/internal/config"
	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

// NewToolFromConfig creates a Tool based on the configuration type.
func NewToolFromConfig(cfg config.CryptoConfig) (smsg.Tool, error) {
	switch cfg.Type {
	case "exec", "":
		if cfg.ToolPath == "" {
			return nil, fmt.Errorf("crypto type exec requires tool_path")
		}
		return NewExecTool(cfg.ToolPath), nil
	case "age":
		return NewAgeTool(), nil
	case "test":
		return NewTestTool(), nil
	default:
		return nil, fmt.Errorf("unknown crypto type: %q", cfg.Type)
	}
}
