package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// JoinKey builds a namespaced key such as "payrecon:payment:2f1e...". Empty
// parts are skipped so an unset prefix does not leave a leading colon.
func JoinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}
