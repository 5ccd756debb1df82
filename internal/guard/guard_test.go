package guard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT * FROM airlines LIMIT 20", "SELECT * FROM airlines LIMIT 20"},
		{"fenced sql", "```sql\nSELECT COUNT(*) FROM flights\n```", "SELECT COUNT(*) FROM flights"},
		{"bare fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"surrounding whitespace", "  \n\tSELECT 1;\n  ", "SELECT 1;"},
		{"fence after whitespace", "\n```sql\nSELECT 2\n```\n", "SELECT 2"},
		{"empty fence", "```sql\n```", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	once := Sanitize("```sql\nSELECT * FROM airports\n```")
	assert.Equal(t, once, Sanitize(once))
}

func TestValidate_RefusesEveryKeywordAnyCase(t *testing.T) {
	for _, kw := range Denylist {
		for _, variant := range []string{kw, toLower(kw), mixed(kw)} {
			q := "SELECT 1; " + variant + " something"
			err := Validate(q)
			if assert.Error(t, err, q) {
				assert.True(t, errors.Is(err, ErrForbidden))
				got, ok := Keyword(err)
				assert.True(t, ok)
				assert.Equal(t, kw, got)
				assert.Equal(t, "Forbidden SQL operation detected", err.Error())
			}
		}
	}
}

func TestValidate_AllowsReadOnly(t *testing.T) {
	for _, q := range []string{
		"SELECT * FROM airlines LIMIT 20",
		"SELECT COUNT(*) FROM flights WHERE CANCELLED = '1'",
		"SELECT a.AIRLINE, COUNT(*) FROM flights f JOIN airlines a ON a.IATA_CODE = f.AIRLINE GROUP BY 1",
	} {
		assert.NoError(t, Validate(q), q)
	}
}

func TestValidate_SubstringScanOverRejects(t *testing.T) {
	// Crude by design of the scan: keyword fragments inside identifiers or literals are refused.
	for _, q := range []string{
		"SELECT INSERTED_AT FROM audit",
		"SELECT * FROM airports WHERE AIRPORT = 'Backdrop Field'",
		"SELECT LAST_UPDATED FROM airlines",
	} {
		assert.ErrorIs(t, Validate(q), ErrForbidden, q)
	}
}

func TestKeyword_NonForbidden(t *testing.T) {
	_, ok := Keyword(errors.New("other"))
	assert.False(t, ok)
	assert.Equal(t, "other", describe(errors.New("other")))
}

func toLower(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func mixed(s string) string {
	b := []byte(toLower(s))
	for i := 0; i < len(b); i += 2 {
		b[i] -= 'a' - 'A'
	}
	return string(b)
}
