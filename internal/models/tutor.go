package models

import "time"

type CertificationStage string

const (
	CertificationDocumentsPending CertificationStage = "DOCUMENTS_PENDING"
	CertificationUnderReview      CertificationStage = "UNDER_REVIEW"
	CertificationCertified        CertificationStage = "CERTIFIED"
	CertificationRejected         CertificationStage = "REJECTED"
)

func ParseCertificationStage(s string) (CertificationStage, bool) {
	switch CertificationStage(s) {
	case CertificationDocumentsPending, CertificationUnderReview,
		CertificationCertified, CertificationRejected:
		return CertificationStage(s), true
	default:
		return "", false
	}
}

type TutorProfile struct {
	UserID             int64
	DisplayName        string
	Bio                string
	CertificationStage CertificationStage
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TutorDocument is the metadata row for an uploaded certification
// document; the bytes live in object storage under ObjectKey.
type TutorDocument struct {
	ID          int64
	UserID      int64
	FileName    string
	ContentType string
	SizeBytes   int64
	ObjectKey   string
	CreatedAt   time.Time
}
