package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CredentialFileName is the service-account file every adminctl subcommand
// requires before any provider call is made.
const CredentialFileName = "serviceAccountKey.json"

// Credentials holds the identity service's admin API settings.
type Credentials struct {
	ProjectID string `json:"project_id"`
	APIKey    string `json:"api_key"`
	Endpoint  string `json:"endpoint"`
}

// DiscoverCredentials looks for serviceAccountKey.json in the working
// directory, the parent of the executable's directory, then the executable's
// directory, in that order.
func DiscoverCredentials() (*Credentials, error) {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		dirs = append(dirs, filepath.Dir(exeDir), exeDir)
	}
	return discoverIn(dirs)
}

func discoverIn(dirs []string) (*Credentials, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, CredentialFileName)
		if _, err := os.Stat(path); err == nil {
			return LoadCredentials(path)
		}
	}
	return nil, fmt.Errorf("%s not found, place it in the project root", CredentialFileName)
}

// LoadCredentials reads and validates a credential file.
func LoadCredentials(path string) (*Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if creds.APIKey == "" || creds.Endpoint == "" {
		return nil, fmt.Errorf("%s is missing api_key or endpoint", path)
	}
	return &creds, nil
}
