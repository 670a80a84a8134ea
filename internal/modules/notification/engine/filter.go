package engine

import (
	"strings"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

// Significant reports whether a record is operationally significant, as
// opposed to test/debug noise that must never reach the panel. The same
// predicate runs at bootstrap, at push delivery, at poll time and at
// reappearance re-validation, so a record cannot slip through one path
// and not another.
func Significant(n domain.Notification) bool {
	if n.Metadata.Bool(domain.MetaKeyTest) ||
		n.Metadata.Bool(domain.MetaKeyDebugMode) ||
		n.Metadata.Bool(domain.MetaKeyAutoRead) {
		return false
	}
	title := strings.ToLower(n.Title)
	message := strings.ToLower(n.Message)
	for _, marker := range []string{"[debug]", "test"} {
		if strings.Contains(title, marker) || strings.Contains(message, marker) {
			return false
		}
	}
	return true
}
