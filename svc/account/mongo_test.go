package account_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/authkit/svc/account"
)

func TestMongoDocumentMapping(t *testing.T) {
	t.Parallel()

	acc := newAccount("a1", "ada@example.com")
	doc := account.ToMongoDocument(acc)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "a1", m["_id"])
	assert.Equal(t, "hash", m["password_hash"])
	assert.NotContains(t, m, "google_id", "empty google id must be absent for the partial unique index")
	assert.NotContains(t, m, "reset_token")
	assert.NotContains(t, m, "reset_token_expires_at")

	expires := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	acc.ResetToken = "tok"
	acc.ResetTokenExpiresAt = &expires
	back := account.FromMongoDocument(account.ToMongoDocument(acc))
	assert.Equal(t, "tok", back.ResetToken)
	require.NotNil(t, back.ResetTokenExpiresAt)
	assert.True(t, expires.Equal(*back.ResetTokenExpiresAt))
}
