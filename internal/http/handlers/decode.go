package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"pitchside/internal/domain"
)

// decodeStrict reads a single JSON object and rejects unknown fields.
func decodeStrict(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.Validation("Request body is required")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syn):
			return domain.Validation("Malformed JSON at offset %d", syn.Offset)
		case errors.As(err, &typ):
			return domain.Validation("%s has the wrong type", typ.Field)
		}
		return domain.Validation("Invalid request body: %v", err)
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return domain.Validation("Request body must contain a single JSON object")
	}
	return nil
}
