package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnstack/api/internal/models"
)

var (
	ErrTutorProfileNotFound = errors.New("tutor profile not found")
	ErrDocumentNotFound     = errors.New("document not found")
)

type TutorRepository struct {
	pool *pgxpool.Pool
}

func NewTutorRepository(pool *pgxpool.Pool) *TutorRepository {
	return &TutorRepository{pool: pool}
}

func (r *TutorRepository) UpsertProfile(ctx context.Context, profile models.TutorProfile) (models.TutorProfile, error) {
	const query = `
		INSERT INTO tutor_profiles (
			user_id, display_name, bio, certification_stage, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NOW(), NOW()
		)
		ON CONFLICT (user_id)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			certification_stage = EXCLUDED.certification_stage,
			updated_at = NOW()
		RETURNING user_id, display_name, bio, certification_stage, created_at, updated_at
	`
	row := r.pool.QueryRow(ctx, query,
		profile.UserID, profile.DisplayName, profile.Bio, profile.CertificationStage)
	return scanTutorProfile(row)
}

func (r *TutorRepository) GetProfile(ctx context.Context, userID int64) (models.TutorProfile, error) {
	const query = `
		SELECT user_id, display_name, bio, certification_stage, created_at, updated_at
		FROM tutor_profiles WHERE user_id = $1
	`
	return scanTutorProfile(r.pool.QueryRow(ctx, query, userID))
}

func (r *TutorRepository) UpdateCertificationStage(ctx context.Context, userID int64, stage models.CertificationStage) error {
	const query = `
		UPDATE tutor_profiles
		SET certification_stage = $2, updated_at = NOW()
		WHERE user_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, userID, stage)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTutorProfileNotFound
	}
	return nil
}

func (r *TutorRepository) CreateDocument(ctx context.Context, doc models.TutorDocument) (models.TutorDocument, error) {
	const query = `
		INSERT INTO tutor_documents (
			user_id, file_name, content_type, size_bytes, object_key, created_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW()
		)
		RETURNING id, user_id, file_name, content_type, size_bytes, object_key, created_at
	`
	row := r.pool.QueryRow(ctx, query,
		doc.UserID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.ObjectKey)
	return scanTutorDocument(row)
}

func (r *TutorRepository) GetDocument(ctx context.Context, id int64) (models.TutorDocument, error) {
	const query = `
		SELECT id, user_id, file_name, content_type, size_bytes, object_key, created_at
		FROM tutor_documents WHERE id = $1
	`
	return scanTutorDocument(r.pool.QueryRow(ctx, query, id))
}

func (r *TutorRepository) ListDocuments(ctx context.Context, userID int64) ([]models.TutorDocument, error) {
	const query = `
		SELECT id, user_id, file_name, content_type, size_bytes, object_key, created_at
		FROM tutor_documents
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.TutorDocument
	for rows.Next() {
		doc, err := scanTutorDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanTutorProfile(row pgx.Row) (models.TutorProfile, error) {
	var profile models.TutorProfile
	if err := row.Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.Bio,
		&profile.CertificationStage,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TutorProfile{}, ErrTutorProfileNotFound
		}
		return models.TutorProfile{}, err
	}
	return profile, nil
}

func scanTutorDocument(row pgx.Row) (models.TutorDocument, error) {
	var doc models.TutorDocument
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.ContentType,
		&doc.SizeBytes,
		&doc.ObjectKey,
		&doc.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TutorDocument{}, ErrDocumentNotFound
		}
		return models.TutorDocument{}, err
	}
	return doc, nil
}
