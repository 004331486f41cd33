package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"learnstack/api/internal/errs"
	"learnstack/api/internal/ids"
	"learnstack/api/internal/models"
	"learnstack/api/internal/repository"
)

// DocumentService handles tutor certification documents: bytes to
// object storage, metadata to postgres, and the certification-stage
// transition out of DOCUMENTS_PENDING.
type DocumentService struct {
	tutors  TutorStore
	objects DocumentStore
	log     zerolog.Logger
}

func NewDocumentService(tutors TutorStore, objects DocumentStore, log zerolog.Logger) *DocumentService {
	return &DocumentService{tutors: tutors, objects: objects, log: log}
}

type UploadInput struct {
	UserID      int64
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (models.TutorDocument, error) {
	profile, err := s.tutors.GetProfile(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrTutorProfileNotFound) {
			return models.TutorDocument{}, errs.NotFound("tutor profile not found")
		}
		return models.TutorDocument{}, err
	}

	key := fmt.Sprintf("tutors/%d/%s", input.UserID, ids.New())
	if err := s.objects.PutDocument(ctx, key, input.Body, input.SizeBytes, input.ContentType); err != nil {
		return models.TutorDocument{}, err
	}

	doc, err := s.tutors.CreateDocument(ctx, models.TutorDocument{
		UserID:      input.UserID,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		ObjectKey:   key,
	})
	if err != nil {
		return models.TutorDocument{}, err
	}

	if profile.CertificationStage == models.CertificationDocumentsPending {
		if err := s.tutors.UpdateCertificationStage(ctx, input.UserID, models.CertificationUnderReview); err != nil {
			s.log.Warn().Err(err).Int64("user_id", input.UserID).Msg("certification stage advance failed")
		}
	}

	return doc, nil
}

// Download returns the document metadata and an open reader for the
// stored bytes. Ownership is checked against userID before anything is
// fetched; a foreign document reads as not found.
func (s *DocumentService) Download(ctx context.Context, userID, documentID int64) (models.TutorDocument, io.ReadCloser, error) {
	doc, err := s.tutors.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return models.TutorDocument{}, nil, errs.NotFound("document not found")
		}
		return models.TutorDocument{}, nil, err
	}
	if doc.UserID != userID {
		return models.TutorDocument{}, nil, errs.NotFound("document not found")
	}

	body, err := s.objects.GetDocument(ctx, doc.ObjectKey)
	if err != nil {
		return models.TutorDocument{}, nil, err
	}
	return doc, body, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, userID int64) ([]models.TutorDocument, error) {
	return s.tutors.ListDocuments(ctx, userID)
}

func (s *DocumentService) GetProfile(ctx context.Context, userID int64) (models.TutorProfile, error) {
	profile, err := s.tutors.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTutorProfileNotFound) {
			return models.TutorProfile{}, errs.NotFound("tutor profile not found")
		}
		return models.TutorProfile{}, err
	}
	return profile, nil
}

func (s *DocumentService) SaveProfile(ctx context.Context, profile models.TutorProfile) (models.TutorProfile, error) {
	if profile.CertificationStage == "" {
		profile.CertificationStage = models.CertificationDocumentsPending
	}
	return s.tutors.UpsertProfile(ctx, profile)
}
