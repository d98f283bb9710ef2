package store

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/minecloud/backend/internal/models"
)

func TestDocumentSchemaAcceptsFreshAccount(t *testing.T) {
	schema, err := compileDocumentSchema()
	require.NoError(t, err)

	acc := models.NewAccount(uuid.New(), "user@example.com")
	raw, err := json.Marshal(acc)
	require.NoError(t, err)

	require.NoError(t, validateDocument(schema, raw))
}

func TestDocumentSchemaRejectsMalformedBlobs(t *testing.T) {
	schema, err := compileDocumentSchema()
	require.NoError(t, err)

	cases := map[string]string{
		"not json":          `{"id":`,
		"missing fields":    `{"id":"x"}`,
		"negative balance":  `{"id":"x","email":"a@b.c","balance_cents":-1,"devices":[],"transactions":[]}`,
		"bad device status": `{"id":"x","email":"a@b.c","balance_cents":0,"devices":[{"instance_id":"D-1","status":"PAUSED","price_at_purchase_cents":100}],"transactions":[]}`,
		"zero amount tx":    `{"id":"x","email":"a@b.c","balance_cents":0,"devices":[],"transactions":[{"id":"DEP-1","amount_cents":0,"kind":"DEPOSIT","status":"PENDING"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, validateDocument(schema, []byte(raw)))
		})
	}
}
