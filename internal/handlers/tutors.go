package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"learnstack/api/internal/models"
	"learnstack/api/internal/service"
)

type tutorProfileResponse struct {
	UserID             int64  `json:"userId"`
	DisplayName        string `json:"displayName"`
	Bio                string `json:"bio"`
	CertificationStage string `json:"certificationStage"`
}

func (h HandlerSet) GetTutorProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.documents.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tutorProfileResponse{
		UserID:             profile.UserID,
		DisplayName:        profile.DisplayName,
		Bio:                profile.Bio,
		CertificationStage: string(profile.CertificationStage),
	})
}

type saveTutorProfileRequest struct {
	DisplayName        string `json:"displayName" binding:"required"`
	Bio                string `json:"bio"`
	CertificationStage string `json:"certificationStage"`
}

func (h HandlerSet) SaveTutorProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req saveTutorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := models.TutorProfile{
		UserID:      user.ID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	}
	if req.CertificationStage != "" {
		stage, ok := models.ParseCertificationStage(req.CertificationStage)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown certification stage"})
			return
		}
		profile.CertificationStage = stage
	}

	saved, err := h.documents.SaveProfile(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tutorProfileResponse{
		UserID:             saved.UserID,
		DisplayName:        saved.DisplayName,
		Bio:                saved.Bio,
		CertificationStage: string(saved.CertificationStage),
	})
}

type documentResponse struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h HandlerSet) ListTutorDocuments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	docs, err := h.documents.ListDocuments(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, documentResponse{
			ID:          doc.ID,
			FileName:    doc.FileName,
			ContentType: doc.ContentType,
			SizeBytes:   doc.SizeBytes,
			CreatedAt:   doc.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"documents": resp})
}

func (h HandlerSet) DownloadTutorDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	documentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	doc, body, err := h.documents.Download(c.Request.Context(), user.ID, documentID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.ContentType, body, nil)
}

const maxDocumentSize = 20 << 20 // 20 MiB

func (h HandlerSet) UploadTutorDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document file required"})
		return
	}
	if fileHeader.Size > maxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable document"})
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(c.Request.Context(), service.UploadInput{
		UserID:      user.ID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, documentResponse{
		ID:          doc.ID,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		CreatedAt:   doc.CreatedAt,
	})
}
