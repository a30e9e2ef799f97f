package token

import (
	"testing"
	"time"

	"docvault/internal/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewValue_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		v := NewValue()
		assert.NotEmpty(t, v)
		assert.False(t, seen[v], "token values must not repeat")
		seen[v] = true
	}
}

func TestNew(t *testing.T) {
	now := time.Now()
	docID, verID, by := uuid.New(), uuid.New(), uuid.New()

	tok := New(docID, verID, by, time.Hour, now)

	assert.Equal(t, docID, tok.DocumentID)
	assert.Equal(t, verID, tok.VersionID)
	assert.Equal(t, by, tok.CreatedBy)
	assert.Equal(t, now.Add(time.Hour), tok.ExpiresAt)
	assert.Nil(t, tok.UsedAt)
	assert.Equal(t, StateActive, Status(tok, now))
}

func TestStatus_ZeroTTLBornExpired(t *testing.T) {
	now := time.Now()
	tok := New(uuid.New(), uuid.New(), uuid.New(), 0, now)

	// now == expiresAt counts as expired
	assert.Equal(t, StateExpired, Status(tok, now))
}

func TestStatus_ExpiredWinsOverUsed(t *testing.T) {
	now := time.Now()
	tok := New(uuid.New(), uuid.New(), uuid.New(), time.Minute, now)
	used := now.Add(30 * time.Second)
	tok.UsedAt = &used

	assert.Equal(t, StateUsed, Status(tok, now.Add(45*time.Second)))
	assert.Equal(t, StateExpired, Status(tok, now.Add(2*time.Minute)),
		"a token both expired and used must report expired")
}

func TestMarkUsed(t *testing.T) {
	now := time.Now()
	tok := New(uuid.New(), uuid.New(), uuid.New(), time.Minute, now)

	used, err := MarkUsed(tok, now)
	assert.NoError(t, err)
	assert.NotNil(t, used.UsedAt)
	assert.Equal(t, now, *used.UsedAt)

	// copy-on-write: the original value is untouched
	assert.Nil(t, tok.UsedAt)

	_, err = MarkUsed(used, now.Add(time.Second))
	assert.True(t, apperr.IsKind(err, apperr.KindTokenAlreadyUsed))
}

func TestMarkUsed_Expired(t *testing.T) {
	now := time.Now()
	tok := New(uuid.New(), uuid.New(), uuid.New(), time.Minute, now)

	_, err := MarkUsed(tok, now.Add(time.Minute))
	assert.True(t, apperr.IsKind(err, apperr.KindTokenExpired))

	// expired check fires before the used check
	usedAt := now.Add(time.Second)
	tok.UsedAt = &usedAt
	_, err = MarkUsed(tok, now.Add(2*time.Minute))
	assert.True(t, apperr.IsKind(err, apperr.KindTokenExpired))
}
