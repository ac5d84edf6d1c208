package biz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	"github.com/lk2023060901/doc-hub-backend/internal/document/storage"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

// memState is the shared backing store for the in-memory repository
// fakes, so a document created through one fake is visible to the rest.
type memState struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]*models.Document
	versions map[uuid.UUID]*models.DocumentVersion
	uploads  map[uuid.UUID]*models.Upload
	groups   map[uuid.UUID]*models.DuplicateGroup
	members  map[uuid.UUID][]*models.DuplicateGroupVersion
	indexes  map[uuid.UUID]*models.DocumentIndex
	jobs     map[uuid.UUID]*models.EnrichmentJob
	tags     map[uuid.UUID]*models.Tag
	docTags  map[uuid.UUID][]uuid.UUID
}

func newMemState() *memState {
	return &memState{
		docs:     make(map[uuid.UUID]*models.Document),
		versions: make(map[uuid.UUID]*models.DocumentVersion),
		uploads:  make(map[uuid.UUID]*models.Upload),
		groups:   make(map[uuid.UUID]*models.DuplicateGroup),
		members:  make(map[uuid.UUID][]*models.DuplicateGroupVersion),
		indexes:  make(map[uuid.UUID]*models.DocumentIndex),
		jobs:     make(map[uuid.UUID]*models.EnrichmentJob),
		tags:     make(map[uuid.UUID]*models.Tag),
		docTags:  make(map[uuid.UUID][]uuid.UUID),
	}
}

func testLogger() *logger.Logger {
	log, err := logger.New(&logger.Config{
		Level:  "error",
		Format: "json",
		Output: "console",
	})
	if err != nil {
		panic(err)
	}
	return log
}

type fakeDocumentRepo struct{ s *memState }

func (r *fakeDocumentRepo) Create(_ context.Context, doc *models.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.docs[doc.ID]; ok {
		return fmt.Errorf("duplicate document %s", doc.ID)
	}
	cp := *doc
	r.s.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*models.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc, ok := r.s.docs[id]
	if !ok || doc.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeDocumentRepo) List(_ context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, size int) ([]*models.Document, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Document
	for _, doc := range r.s.docs {
		if doc.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status.String() {
			continue
		}
		if filter.DocType != "" && doc.DocType != filter.DocType.String() {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeDocumentRepo) CreateWithVersion(_ context.Context, doc *models.Document, version *models.DocumentVersion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.docs[doc.ID]; ok {
		return fmt.Errorf("duplicate document %s", doc.ID)
	}
	if _, ok := r.s.versions[version.ID]; ok {
		return fmt.Errorf("duplicate version %s", version.ID)
	}
	dcp := *doc
	vcp := *version
	dcp.CurrentVersionID = &vcp.ID
	r.s.docs[doc.ID] = &dcp
	r.s.versions[version.ID] = &vcp
	return nil
}

func (r *fakeDocumentRepo) AppendVersion(_ context.Context, docID uuid.UUID, version *models.DocumentVersion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc, ok := r.s.docs[docID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if _, ok := r.s.versions[version.ID]; ok {
		return fmt.Errorf("duplicate version %s", version.ID)
	}
	maxNo := 0
	for _, v := range r.s.versions {
		if v.DocumentID == docID && v.VersionNo > maxNo {
			maxNo = v.VersionNo
		}
	}
	vcp := *version
	vcp.VersionNo = maxNo + 1
	r.s.versions[version.ID] = &vcp
	doc.CurrentVersionID = &vcp.ID
	version.VersionNo = vcp.VersionNo
	return nil
}

func (r *fakeDocumentRepo) SetCurrentVersion(_ context.Context, id, versionID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc, ok := r.s.docs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v := versionID
	doc.CurrentVersionID = &v
	return nil
}

func (r *fakeDocumentRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to doctypes.DocumentStatus, extra map[string]interface{}) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc, ok := r.s.docs[id]
	if !ok || doc.Status != from.String() {
		return false, nil
	}
	doc.Status = to.String()
	for k, v := range extra {
		switch k {
		case "archived_at":
			if v == nil {
				doc.ArchivedAt = nil
			} else if ts, ok := v.(time.Time); ok {
				doc.ArchivedAt = &ts
			}
		case "deleted_at":
			if ts, ok := v.(time.Time); ok {
				doc.DeletedAt = &ts
			}
		}
	}
	return true, nil
}

func (r *fakeDocumentRepo) SetError(_ context.Context, id uuid.UUID, msg string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc, ok := r.s.docs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	doc.ErrorMessage = msg
	return nil
}

type fakeVersionRepo struct{ s *memState }

func (r *fakeVersionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.DocumentVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.versions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVersionRepo) ListByDocumentID(_ context.Context, docID uuid.UUID) ([]*models.DocumentVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.DocumentVersion
	for _, v := range r.s.versions {
		if v.DocumentID == docID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeVersionRepo) ListBySHA256(_ context.Context, tenantID uuid.UUID, sha256 string) ([]*models.DocumentVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.DocumentVersion
	for _, v := range r.s.versions {
		if v.SHA256 != sha256 {
			continue
		}
		doc, ok := r.s.docs[v.DocumentID]
		if !ok || doc.TenantID != tenantID {
			continue
		}
		if doc.Status == doctypes.DocumentStatusArchived.String() ||
			doc.Status == doctypes.DocumentStatusDeleted.String() {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeVersionRepo) Sample(_ context.Context, tenantID uuid.UUID, limit int) ([]*models.DocumentVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.DocumentVersion
	for _, v := range r.s.versions {
		if len(out) >= limit {
			break
		}
		if tenantID != uuid.Nil {
			doc, ok := r.s.docs[v.DocumentID]
			if !ok || doc.TenantID != tenantID {
				continue
			}
		}
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

type fakeUploadRepo struct{ s *memState }

func (r *fakeUploadRepo) Create(_ context.Context, upload *models.Upload) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.uploads[upload.ID]; ok {
		return fmt.Errorf("duplicate upload %s", upload.ID)
	}
	cp := *upload
	r.s.uploads[upload.ID] = &cp
	return nil
}

func (r *fakeUploadRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*models.Upload, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.uploads[id]
	if !ok || u.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUploadRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to doctypes.UploadStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.uploads[id]
	if !ok || u.Status != from.String() {
		return false, nil
	}
	u.Status = to.String()
	return true, nil
}

func (r *fakeUploadRepo) MarkIngested(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.uploads[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if u.Status != doctypes.UploadStatusUploaded.String() {
		return fmt.Errorf("upload %s is %s, expected uploaded", id, u.Status)
	}
	u.Status = doctypes.UploadStatusIngested.String()
	u.ErrorMessage = ""
	return nil
}

func (r *fakeUploadRepo) MarkFailed(_ context.Context, id uuid.UUID, msg string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.uploads[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = doctypes.UploadStatusFailed.String()
	u.ErrorMessage = msg
	return nil
}

func (r *fakeUploadRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]*models.Upload, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Upload
	for _, u := range r.s.uploads {
		if len(out) >= limit {
			break
		}
		if u.Status == doctypes.UploadStatusPresigned.String() && u.ExpiresAt.Before(now) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeDuplicateRepo struct{ s *memState }

func (r *fakeDuplicateRepo) GetExactGroup(_ context.Context, tenantID uuid.UUID, sha256 string) (*models.DuplicateGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.TenantID == tenantID && g.Reason == doctypes.GroupReasonExact.String() && g.SHA256 == sha256 {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDuplicateRepo) GetGroupByVersion(_ context.Context, tenantID uuid.UUID, reason doctypes.GroupReason, versionID uuid.UUID) (*models.DuplicateGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for gid, members := range r.s.members {
		g, ok := r.s.groups[gid]
		if !ok || g.TenantID != tenantID || g.Reason != reason.String() {
			continue
		}
		for _, m := range members {
			if m.VersionID == versionID {
				cp := *g
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeDuplicateRepo) CreateGroup(_ context.Context, group *models.DuplicateGroup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if group.Reason == doctypes.GroupReasonExact.String() {
		for _, g := range r.s.groups {
			if g.TenantID == group.TenantID && g.Reason == group.Reason && g.SHA256 == group.SHA256 {
				return fmt.Errorf("duplicate exact group for %s", group.SHA256)
			}
		}
	}
	cp := *group
	r.s.groups[group.ID] = &cp
	return nil
}

func (r *fakeDuplicateRepo) AddMember(_ context.Context, member *models.DuplicateGroupVersion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.groups[member.GroupID]; !ok {
		return fmt.Errorf("group %s does not exist", member.GroupID)
	}
	for _, m := range r.s.members[member.GroupID] {
		if m.VersionID == member.VersionID {
			return nil
		}
	}
	cp := *member
	r.s.members[member.GroupID] = append(r.s.members[member.GroupID], &cp)
	return nil
}

func (r *fakeDuplicateRepo) GetGroup(_ context.Context, tenantID, id uuid.UUID) (*models.DuplicateGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[id]
	if !ok || g.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	for _, m := range r.s.members[id] {
		cp.Members = append(cp.Members, *m)
	}
	return &cp, nil
}

func (r *fakeDuplicateRepo) ListGroups(_ context.Context, tenantID uuid.UUID, reason doctypes.GroupReason, page, size int) ([]*models.DuplicateGroup, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.DuplicateGroup
	for _, g := range r.s.groups {
		if g.TenantID != tenantID {
			continue
		}
		if reason != "" && g.Reason != reason.String() {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeDuplicateRepo) IsMember(_ context.Context, groupID, versionID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.members[groupID] {
		if m.VersionID == versionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDuplicateRepo) SetKeepVersion(_ context.Context, groupID, versionID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[groupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v := versionID
	g.KeepVersionID = &v
	return nil
}

func (r *fakeDuplicateRepo) DeleteGroup(_ context.Context, tenantID, groupID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[groupID]
	if !ok || g.TenantID != tenantID {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.groups, groupID)
	delete(r.s.members, groupID)
	return nil
}

type fakeIndexRepo struct{ s *memState }

func (r *fakeIndexRepo) Upsert(_ context.Context, idx *models.DocumentIndex) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *idx
	r.s.indexes[idx.VersionID] = &cp
	return nil
}

func (r *fakeIndexRepo) GetByVersionID(_ context.Context, versionID uuid.UUID) (*models.DocumentIndex, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx, ok := r.s.indexes[versionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *idx
	return &cp, nil
}

func (r *fakeIndexRepo) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*models.DocumentIndex, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.DocumentIndex
	for _, idx := range r.s.indexes {
		if idx.TenantID == tenantID {
			cp := *idx
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeTagRepo struct{ s *memState }

func (r *fakeTagRepo) GetOrCreate(_ context.Context, tenantID uuid.UUID, name string) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tags {
		if t.TenantID == tenantID && t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	tag := &models.Tag{ID: uuid.New(), TenantID: tenantID, Name: name}
	r.s.tags[tag.ID] = tag
	cp := *tag
	return &cp, nil
}

func (r *fakeTagRepo) Attach(_ context.Context, docID, tagID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.docTags[docID] {
		if existing == tagID {
			return nil
		}
	}
	r.s.docTags[docID] = append(r.s.docTags[docID], tagID)
	return nil
}

func (r *fakeTagRepo) ListByDocument(_ context.Context, docID uuid.UUID) ([]*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Tag
	for _, tagID := range r.s.docTags[docID] {
		if t, ok := r.s.tags[tagID]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

var errObjectNotFound = errors.New("object not found")

// fakeGateway keeps objects in a map. failGet forces Get errors on
// specific keys for failure-path tests.
type fakeGateway struct {
	mu      sync.Mutex
	objects map[string][]byte
	failGet map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		objects: make(map[string][]byte),
		failGet: make(map[string]error),
	}
}

func (g *fakeGateway) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://store.local/put/" + key, nil
}

func (g *fakeGateway) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://store.local/get/" + key, nil
}

func (g *fakeGateway) Head(_ context.Context, key string) (storage.ObjectStat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	body, ok := g.objects[key]
	if !ok {
		return storage.ObjectStat{}, errObjectNotFound
	}
	return storage.ObjectStat{Key: key, SizeBytes: int64(len(body))}, nil
}

func (g *fakeGateway) Get(_ context.Context, key string) (io.ReadCloser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failGet[key]; ok {
		return nil, err
	}
	body, ok := g.objects[key]
	if !ok {
		return nil, errObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (g *fakeGateway) Put(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.objects[key] = body
	return nil
}

func (g *fakeGateway) Copy(_ context.Context, srcKey, dstKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	body, ok := g.objects[srcKey]
	if !ok {
		return errObjectNotFound
	}
	g.objects[dstKey] = append([]byte(nil), body...)
	return nil
}

func (g *fakeGateway) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.objects, key)
	return nil
}

func (g *fakeGateway) IsNotFound(err error) bool {
	return errors.Is(err, errObjectNotFound)
}

func (g *fakeGateway) put(key string, body []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.objects[key] = append([]byte(nil), body...)
}

func (g *fakeGateway) has(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.objects[key]
	return ok
}

// fakeEnqueuer records what the finalizer asked for.
type fakeEnqueuer struct {
	mu    sync.Mutex
	calls []enqueueCall
}

type enqueueCall struct {
	TenantID   uuid.UUID
	DocumentID uuid.UUID
	VersionID  uuid.UUID
	JobTypes   []doctypes.JobType
}

func (e *fakeEnqueuer) EnqueueForVersion(_ context.Context, tenantID, documentID, versionID uuid.UUID, jobTypes []doctypes.JobType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, enqueueCall{
		TenantID:   tenantID,
		DocumentID: documentID,
		VersionID:  versionID,
		JobTypes:   jobTypes,
	})
	return nil
}
