package access

import (
	"testing"

	"docvault/internal/apperr"
	"docvault/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func grant(docID, userID uuid.UUID, cap model.Capability) model.Permission {
	return model.Permission{ID: uuid.New(), DocumentID: docID, UserID: userID, Capability: cap}
}

func TestResolver_AdminBypassesGrants(t *testing.T) {
	admin := Identity{ID: uuid.New(), Role: model.RoleAdmin}
	doc := &model.Document{ID: uuid.New(), OwnerID: uuid.New()}

	assert.True(t, CanRead(admin, doc, nil))
	assert.True(t, CanWrite(admin, doc, nil))
	assert.True(t, CanDelete(admin, doc, nil))
}

func TestResolver_OwnerBypassesGrants(t *testing.T) {
	owner := Identity{ID: uuid.New(), Role: model.RoleUser}
	doc := &model.Document{ID: uuid.New(), OwnerID: owner.ID}

	assert.True(t, CanRead(owner, doc, nil))
	assert.True(t, CanWrite(owner, doc, nil))
	assert.True(t, CanDelete(owner, doc, nil))
}

func TestResolver_NoGrantsDeniesEverything(t *testing.T) {
	stranger := Identity{ID: uuid.New(), Role: model.RoleUser}
	doc := &model.Document{ID: uuid.New(), OwnerID: uuid.New()}

	assert.False(t, CanRead(stranger, doc, nil))
	assert.False(t, CanWrite(stranger, doc, nil))
	assert.False(t, CanDelete(stranger, doc, nil))
}

func TestResolver_GrantsAreIndependent(t *testing.T) {
	reader := Identity{ID: uuid.New(), Role: model.RoleUser}
	doc := &model.Document{ID: uuid.New(), OwnerID: uuid.New()}
	grants := []model.Permission{grant(doc.ID, reader.ID, model.CapabilityRead)}

	assert.True(t, CanRead(reader, doc, grants))
	assert.False(t, CanWrite(reader, doc, grants), "READ must not imply WRITE")
	assert.False(t, CanDelete(reader, doc, grants), "READ must not imply DELETE")

	// WRITE does not imply READ either.
	writer := Identity{ID: uuid.New(), Role: model.RoleUser}
	wGrants := []model.Permission{grant(doc.ID, writer.ID, model.CapabilityWrite)}
	assert.True(t, CanWrite(writer, doc, wGrants))
	assert.False(t, CanRead(writer, doc, wGrants))
}

func TestResolver_AdditionalGrantExtendsNotReplaces(t *testing.T) {
	u2 := Identity{ID: uuid.New(), Role: model.RoleUser}
	doc := &model.Document{ID: uuid.New(), OwnerID: uuid.New()}

	grants := []model.Permission{grant(doc.ID, u2.ID, model.CapabilityRead)}
	assert.False(t, CanWrite(u2, doc, grants))

	grants = append(grants, grant(doc.ID, u2.ID, model.CapabilityWrite))
	assert.True(t, CanWrite(u2, doc, grants))
	assert.True(t, CanRead(u2, doc, grants), "earlier READ grant must survive")
}

func TestResolver_GrantsForOtherUsersIgnored(t *testing.T) {
	actor := Identity{ID: uuid.New(), Role: model.RoleUser}
	doc := &model.Document{ID: uuid.New(), OwnerID: uuid.New()}
	grants := []model.Permission{grant(doc.ID, uuid.New(), model.CapabilityRead)}

	assert.False(t, CanRead(actor, doc, grants))
}

func TestRequire_DeniedCarriesContext(t *testing.T) {
	actor := Identity{ID: uuid.New(), Role: model.RoleUser}
	doc := &model.Document{ID: uuid.New(), OwnerID: uuid.New()}

	err := RequireWrite(actor, doc, nil)
	assert.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientPermission))

	var ae *apperr.Error
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, actor.ID, ae.UserID)
	assert.Equal(t, doc.ID, ae.DocumentID)
	assert.Equal(t, "WRITE", ae.Capability)
}

func TestRequire_Deterministic(t *testing.T) {
	actor := Identity{ID: uuid.New(), Role: model.RoleUser}
	doc := &model.Document{ID: uuid.New(), OwnerID: uuid.New()}
	grants := []model.Permission{grant(doc.ID, actor.ID, model.CapabilityDelete)}

	for i := 0; i < 10; i++ {
		assert.NoError(t, RequireDelete(actor, doc, grants))
		assert.Error(t, RequireRead(actor, doc, grants))
	}
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := Identity{ID: uuid.New(), Role: model.RoleUser}
	admin := Identity{ID: uuid.New(), Role: model.RoleAdmin}
	other := Identity{ID: uuid.New(), Role: model.RoleUser}
	doc := &model.Document{ID: uuid.New(), OwnerID: owner.ID}

	assert.NoError(t, RequireOwnerOrAdmin(owner, doc, model.CapabilityWrite))
	assert.NoError(t, RequireOwnerOrAdmin(admin, doc, model.CapabilityWrite))
	assert.Error(t, RequireOwnerOrAdmin(other, doc, model.CapabilityWrite))
}
