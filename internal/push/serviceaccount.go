package push

import (
	"errors"
	"fmt"
	"os"

	"github.com/artel-team/artel/internal/config"
	"github.com/bytedance/sonic"
)

var (
	ErrNoServiceAccount         = errors.New("no service account configured")
	ErrServiceAccountIncomplete = errors.New("Service account missing project_id/client_email/private_key")
)

// ServiceAccount is the subset of a Google service-account key file we use.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := sonic.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	if sa.ProjectID == "" || sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, ErrServiceAccountIncomplete
	}
	return &sa, nil
}

// LoadServiceAccount reads the inline JSON first, then the file path.
// ErrNoServiceAccount means neither is set.
func LoadServiceAccount(cfg *config.Config) (*ServiceAccount, error) {
	raw := []byte(cfg.Push.ServiceAccountJSON)
	if len(raw) == 0 && cfg.Push.ServiceAccountFile != "" {
		b, err := os.ReadFile(cfg.Push.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, ErrNoServiceAccount
	}
	sa, err := ParseServiceAccount(raw)
	if err != nil {
		return nil, err
	}
	if sa.TokenURI == "" {
		sa.TokenURI = cfg.Push.TokenURL
	}
	return sa, nil
}
