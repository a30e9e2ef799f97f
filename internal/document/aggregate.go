// Package document holds the in-memory document/version aggregate. It keeps
// a document header together with its known versions and enforces contiguous
// version numbering and idempotent mutation. Every mutation returns a new
// aggregate value; instances are never shared across requests.
package document

import (
	"sort"
	"time"

	"docvault/internal/model"

	"github.com/google/uuid"
)

// Aggregate wraps a document header and its versions, loaded from
// persistence by a collaborator. Purely in-memory, no I/O.
type Aggregate struct {
	doc      model.Document
	versions []model.DocumentVersion
}

// New builds an aggregate from a header and its currently known versions.
// The version slice is copied and kept sorted by version number ascending.
func New(doc model.Document, versions []model.DocumentVersion) Aggregate {
	vs := make([]model.DocumentVersion, len(versions))
	copy(vs, versions)
	sortVersions(vs)
	return Aggregate{doc: doc, versions: vs}
}

func sortVersions(vs []model.DocumentVersion) {
	sort.Slice(vs, func(i, j int) bool {
		return vs[i].VersionNumber < vs[j].VersionNumber
	})
}

// Document returns the wrapped header.
func (a Aggregate) Document() model.Document { return a.doc }

// NextVersionNumber computes max(versionNumber)+1, or 1 when no versions
// exist. The value is advisory: the database's unique constraint on
// (document_id, version_number) is the source of truth, and callers retry
// with a recomputed number on a constraint violation.
func (a Aggregate) NextVersionNumber() int {
	next := 1
	for _, v := range a.versions {
		if v.VersionNumber >= next {
			next = v.VersionNumber + 1
		}
	}
	return next
}

// Draft carries the caller-supplied fields of a version about to be created.
type Draft struct {
	Filename    string
	ContentType string
	Size        int64
	Checksum    string
	UploadedBy  uuid.UUID
}

// PlanVersion returns an unsaved version record carrying the next version
// number, a fresh id and the given timestamp. The aggregate itself is not
// mutated; the caller persists the record and then calls Attach.
func (a Aggregate) PlanVersion(d Draft, now time.Time) model.DocumentVersion {
	return model.DocumentVersion{
		ID:            uuid.New(),
		DocumentID:    a.doc.ID,
		VersionNumber: a.NextVersionNumber(),
		Filename:      d.Filename,
		ContentType:   d.ContentType,
		Size:          d.Size,
		Checksum:      d.Checksum,
		UploadedBy:    d.UploadedBy,
		CreatedAt:     now,
	}
}

// Attach returns a new aggregate with v appended. When a version with the
// same id is already present the aggregate is returned unchanged, so the
// operation is safe to repeat after a retried write.
func (a Aggregate) Attach(v model.DocumentVersion) Aggregate {
	for _, existing := range a.versions {
		if existing.ID == v.ID {
			return a
		}
	}
	vs := make([]model.DocumentVersion, len(a.versions), len(a.versions)+1)
	copy(vs, a.versions)
	vs = append(vs, v)
	sortVersions(vs)
	return Aggregate{doc: a.doc, versions: vs}
}

// Remove returns a new aggregate without the version carrying versionID.
// No-op when the id is not present.
func (a Aggregate) Remove(versionID uuid.UUID) Aggregate {
	vs := make([]model.DocumentVersion, 0, len(a.versions))
	for _, v := range a.versions {
		if v.ID != versionID {
			vs = append(vs, v)
		}
	}
	return Aggregate{doc: a.doc, versions: vs}
}

// Latest returns the version with the highest number, or false when the
// aggregate holds no versions.
func (a Aggregate) Latest() (model.DocumentVersion, bool) {
	if len(a.versions) == 0 {
		return model.DocumentVersion{}, false
	}
	return a.versions[len(a.versions)-1], true
}

// Versions returns a copy of the versions ordered by number ascending.
func (a Aggregate) Versions() []model.DocumentVersion {
	vs := make([]model.DocumentVersion, len(a.versions))
	copy(vs, a.versions)
	return vs
}

// Len returns the number of versions held by the aggregate.
func (a Aggregate) Len() int { return len(a.versions) }
