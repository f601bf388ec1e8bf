package storage

import "github.com/fletcher-oaas/fletcher/internal/domain"

// jsonArg converts an optional RawJSON field into a driver argument: nil
// so the column stores SQL NULL rather than the literal string "null".
func jsonArg(v domain.RawJSON) any {
	if len(v) == 0 {
		return nil
	}

	return []byte(v)
}

// scanJSON turns a raw column read into a RawJSON value, treating a NULL
// scan (nil slice) as an absent field rather than a JSON null literal.
func scanJSON(b []byte) domain.RawJSON {
	if b == nil {
		return nil
	}

	return domain.RawJSON(b)
}
