package perception

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nlsql/internal/guard"
	"nlsql/internal/schema"
)

// ErrEmptyTranslation is returned when the model produced no usable SQL text.
var ErrEmptyTranslation = errors.New("model returned no SQL")

// DefaultRowLimit is suggested to the model when the question names no row count.
const DefaultRowLimit = 20

// Translator turns a natural-language question into one candidate SQL statement.
type Translator struct {
	client   LLMClient
	schema   *schema.Schema
	rowLimit int
}

// NewTranslator creates a translator over client and schema s.
func NewTranslator(client LLMClient, s *schema.Schema, rowLimit int) *Translator {
	if s == nil {
		s = schema.Default()
	}
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	return &Translator{client: client, schema: s, rowLimit: rowLimit}
}

// BuildPrompt embeds the schema description and the literal question.
func (t *Translator) BuildPrompt(question string) string {
	var b strings.Builder
	b.WriteString("Convert the following natural language query into a valid SQL statement for the given schema:\n\n")
	b.WriteString(t.schema.Describe())
	fmt.Fprintf(&b, "\nNatural Language Query: %q\n\n", question)
	b.WriteString("Provide only the SQL query, without markdown formatting.\n")
	fmt.Fprintf(&b, "If the query does not specify how many rows to return, limit the result to %d rows.\n", t.rowLimit)
	return b.String()
}

// Translate asks the model for SQL and returns the cleaned candidate query.
func (t *Translator) Translate(ctx context.Context, question string) (string, error) {
	raw, err := t.client.Complete(ctx, t.BuildPrompt(question))
	if err != nil {
		return "", err
	}

	candidate := guard.Sanitize(raw)
	if candidate == "" {
		return "", ErrEmptyTranslation
	}
	return candidate, nil
}
