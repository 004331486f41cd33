package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"learnstack/api/internal/errs"
	"learnstack/api/internal/models"
	"learnstack/api/internal/repository"
)

type fakeTutorStore struct {
	seq      int64
	profiles map[int64]models.TutorProfile
	docs     map[int64]models.TutorDocument
}

func newFakeTutorStore() *fakeTutorStore {
	return &fakeTutorStore{
		profiles: make(map[int64]models.TutorProfile),
		docs:     make(map[int64]models.TutorDocument),
	}
}

func (s *fakeTutorStore) UpsertProfile(_ context.Context, profile models.TutorProfile) (models.TutorProfile, error) {
	profile.UpdatedAt = time.Now()
	s.profiles[profile.UserID] = profile
	return profile, nil
}

func (s *fakeTutorStore) GetProfile(_ context.Context, userID int64) (models.TutorProfile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return models.TutorProfile{}, repository.ErrTutorProfileNotFound
	}
	return profile, nil
}

func (s *fakeTutorStore) UpdateCertificationStage(_ context.Context, userID int64, stage models.CertificationStage) error {
	profile, ok := s.profiles[userID]
	if !ok {
		return repository.ErrTutorProfileNotFound
	}
	profile.CertificationStage = stage
	s.profiles[userID] = profile
	return nil
}

func (s *fakeTutorStore) CreateDocument(_ context.Context, doc models.TutorDocument) (models.TutorDocument, error) {
	s.seq++
	doc.ID = s.seq
	doc.CreatedAt = time.Now()
	s.docs[doc.ID] = doc
	return doc, nil
}

func (s *fakeTutorStore) GetDocument(_ context.Context, id int64) (models.TutorDocument, error) {
	doc, ok := s.docs[id]
	if !ok {
		return models.TutorDocument{}, repository.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *fakeTutorStore) ListDocuments(_ context.Context, userID int64) ([]models.TutorDocument, error) {
	var out []models.TutorDocument
	for _, doc := range s.docs {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	return out, nil
}

type fakeObjectStore struct {
	objects map[string][]byte
}

func (s *fakeObjectStore) PutDocument(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStore) GetDocument(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestUploadAdvancesCertificationStage(t *testing.T) {
	tutors := newFakeTutorStore()
	objects := &fakeObjectStore{}
	svc := NewDocumentService(tutors, objects, testLogger())

	if _, err := svc.SaveProfile(context.Background(), models.TutorProfile{
		UserID:      1,
		DisplayName: "Asha",
	}); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	profile, err := svc.GetProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.CertificationStage != models.CertificationDocumentsPending {
		t.Fatalf("expected new profile in DOCUMENTS_PENDING, got %s", profile.CertificationStage)
	}

	doc, err := svc.Upload(context.Background(), UploadInput{
		UserID:      1,
		FileName:    "degree.pdf",
		ContentType: "application/pdf",
		SizeBytes:   4,
		Body:        bytes.NewReader([]byte("%PDF")),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(doc.ObjectKey, "tutors/1/") {
		t.Fatalf("unexpected object key %q", doc.ObjectKey)
	}
	if _, ok := objects.objects[doc.ObjectKey]; !ok {
		t.Fatalf("expected bytes in object store")
	}

	profile, err = svc.GetProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.CertificationStage != models.CertificationUnderReview {
		t.Fatalf("expected stage advanced to UNDER_REVIEW, got %s", profile.CertificationStage)
	}

	docs, err := svc.ListDocuments(context.Background(), 1)
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected one document, got %d err=%v", len(docs), err)
	}
}

func TestDownloadChecksOwnership(t *testing.T) {
	tutors := newFakeTutorStore()
	objects := &fakeObjectStore{}
	svc := NewDocumentService(tutors, objects, testLogger())

	if _, err := svc.SaveProfile(context.Background(), models.TutorProfile{UserID: 1, DisplayName: "Asha"}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	uploaded, err := svc.Upload(context.Background(), UploadInput{
		UserID:      1,
		FileName:    "degree.pdf",
		ContentType: "application/pdf",
		SizeBytes:   4,
		Body:        bytes.NewReader([]byte("%PDF")),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	doc, body, err := svc.Download(context.Background(), 1, uploaded.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil || string(data) != "%PDF" {
		t.Fatalf("bytes round trip: %q err=%v", data, err)
	}
	if doc.FileName != "degree.pdf" {
		t.Fatalf("metadata lost: %+v", doc)
	}

	if _, _, err := svc.Download(context.Background(), 2, uploaded.ID); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("foreign document must read as not found, got %v", err)
	}
	if _, _, err := svc.Download(context.Background(), 1, 999); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("missing document must read as not found, got %v", err)
	}
}

func TestUploadWithoutProfile(t *testing.T) {
	svc := NewDocumentService(newFakeTutorStore(), &fakeObjectStore{}, testLogger())

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID:   7,
		FileName: "degree.pdf",
		Body:     bytes.NewReader(nil),
	})
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
