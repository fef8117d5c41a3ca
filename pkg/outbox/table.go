package outbox

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/pkg/serrors"
)

var ErrInvalidConfig = serrors.NewError("OUTBOX_INVALID_CONFIG", "invalid outbox configuration", "")

func invalidConfig(msg string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(msg, args...))
}

// ParseIdentifier reads OUTBOX_TABLE, either "table" or "schema.table".
// Parts are restricted to ASCII letters, digits and underscores.
func ParseIdentifier(s string) (pgx.Identifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalidConfig("identifier is empty")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, invalidConfig("invalid identifier %q (expected table or schema.table)", s)
	}
	ident := make(pgx.Identifier, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if !validIdentPart(p) {
			return nil, invalidConfig("invalid identifier %q (bad part %q)", s, p)
		}
		ident[i] = p
	}
	return ident, nil
}

func validIdentPart(p string) bool {
	if p == "" {
		return false
	}
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// TableLabel is the metric and log label of an outbox table.
func TableLabel(table pgx.Identifier) string {
	return strings.Join(table, ".")
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}
