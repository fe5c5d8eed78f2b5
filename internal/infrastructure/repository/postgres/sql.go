package postgres

import (
	"database/sql"
	"errors"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
	"github.com/valyala/bytebufferpool"
)

const uniqueViolationCode = "23505"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}
	return false
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nullStringValue(value sql.NullString) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

func nullIntPtr(value sql.NullInt32) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int32)
	return &v
}

func stringSliceToAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func marshalPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// lockKey joins parts into the text hashed by pg_advisory_xact_lock(hashtext(...)).
func lockKey(parts ...string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for i, part := range parts {
		if i > 0 {
			_ = buf.WriteByte(':')
		}
		_, _ = buf.WriteString(part)
	}
	return buf.String()
}
