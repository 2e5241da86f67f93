package resolve

import (
	"github.com/etp-webadmin/etapprover/internal/models"
	"github.com/etp-webadmin/etapprover/internal/username"
)

// Overrides is the static known-correct username table, keyed by normalized
// name token. It is built once at startup and read-only afterwards; a hit
// is ground truth and skips candidate generation and verification entirely.
type Overrides map[string]string

// NewOverrides normalizes the configured keys so that lookups are stable
// regardless of how the key was spelled in the config file.
func NewOverrides(raw map[string]string) Overrides {
	o := make(Overrides, len(raw))
	for key, user := range raw {
		o[username.Normalize(key)] = user
	}
	return o
}

// Lookup returns the override for a name, if any. The lastname key takes
// precedence over the full-name key; for each, the canonical digraph fold
// (ö→oe) is tried before the plain accent fold (ö→o), so a table entry in
// either spelling matches.
func (o Overrides) Lookup(name models.PersonName) (string, bool) {
	if len(o) == 0 {
		return "", false
	}
	keys := []string{
		username.Normalize(name.Lastname),
		username.FoldASCII(name.Lastname),
		username.Normalize(name.Lastname) + username.Normalize(name.Firstname),
		username.FoldASCII(name.Lastname) + username.FoldASCII(name.Firstname),
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if user, ok := o[key]; ok {
			return user, true
		}
	}
	return "", false
}
