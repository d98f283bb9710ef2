package store

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema guards the Account blob: the document is written by
// clients through this service only, but the store column is still the
// trust boundary, so the blob is checked before it is unmarshalled.
const documentSchema = `{
	"type": "object",
	"required": ["id", "email", "balance_cents", "devices", "transactions"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"email": {"type": "string", "minLength": 3},
		"balance_cents": {"type": "integer", "minimum": 0},
		"total_deposits_cents": {"type": "integer", "minimum": 0},
		"total_earnings_cents": {"type": "integer", "minimum": 0},
		"devices": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["instance_id", "status", "price_at_purchase_cents"],
				"properties": {
					"instance_id": {"type": "string", "minLength": 1},
					"status": {"enum": ["IDLE", "RUNNING", "COMPLETED"]},
					"price_at_purchase_cents": {"type": "integer", "minimum": 0}
				}
			}
		},
		"transactions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "amount_cents", "kind", "status"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"amount_cents": {"type": "integer", "exclusiveMinimum": 0},
					"kind": {"enum": ["DEPOSIT", "WITHDRAWAL"]},
					"status": {"enum": ["PENDING", "COMPLETED", "REJECTED"]}
				}
			}
		}
	}
}`

func compileDocumentSchema() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("https://minecloud.dev/schemas/profile.document", documentSchema)
}

// validateDocument checks a raw blob against the account document schema.
func validateDocument(schema *jsonschema.Schema, raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("document is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("document failed schema check: %w", err)
	}
	return nil
}
