// Package secrets persists the single GitHub credential in the OS-native
// secret store.
package secrets

// Method records how a credential was obtained.
type Method string

const (
	// MethodBrowser means the credential came from the device-code flow.
	MethodBrowser Method = "browser"
	// MethodToken means the user supplied a personal access token directly.
	MethodToken Method = "token"
)

// Credential is the one persisted secret. At most one exists per
// installation; re-login replaces it wholesale. Never logged.
type Credential struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
	Method   Method `json:"method"`
}

// Store persists and retrieves the credential. Storage failures are
// terminal for the calling operation; no retry logic lives here.
type Store interface {

	// Save persists the credential, replacing any existing one.
	Save(cred Credential) error

	// Load retrieves the stored credential. The second return is false
	// when no credential is stored.
	Load() (Credential, bool, error)

	// Clear deletes the stored credential. Clearing when nothing is
	// stored is not an error; the return reports whether the store is
	// now empty.
	Clear() (bool, error)
}
