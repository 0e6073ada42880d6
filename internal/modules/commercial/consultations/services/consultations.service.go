package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/infrastructure/storage"
	"sofimed-core/internal/modules/commercial/consultations/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/sirupsen/logrus"
)

type ConsultationRepository interface {
	ListThreads(ctx context.Context, commercialID, statut string) ([]dto.ThreadSummary, error)
	GetConsultation(ctx context.Context, id string) (*dto.Consultation, error)
	ListMessages(ctx context.Context, id string) ([]dto.Message, error)
	MarkRead(ctx context.Context, id string) error
	AppendCommercialMessage(ctx context.Context, msg dto.NewMessage) (*dto.Message, error)
	AttachmentOwner(ctx context.Context, fileName string) (string, error)
}

type AttachmentStore interface {
	Save(originalName string, r io.Reader) (*storage.StoredFile, error)
	Resolve(name string) (string, error)
	Remove(names ...string)
	MaxBytes() int64
}

// Upload fichier reçu en multipart
type Upload struct {
	Name   string
	Reader io.Reader
}

type ConsultationService struct {
	repo  ConsultationRepository
	files AttachmentStore
	logg  *logrus.Logger
}

func NewConsultationService(repo ConsultationRepository, files AttachmentStore, logg *logrus.Logger) *ConsultationService {
	return &ConsultationService{repo: repo, files: files, logg: logg}
}

// MaxUploadBytes taille maximale d'une pièce jointe acceptée par le stockage
func (s *ConsultationService) MaxUploadBytes() int64 {
	return s.files.MaxBytes()
}

func (s *ConsultationService) ListThreads(ctx context.Context, commercialID, statut string) (*dto.ThreadListResponse, error) {
	threads, err := s.repo.ListThreads(ctx, commercialID, statut)
	if err != nil {
		logger.LogError(s.logg, "consultations", "ListThreads", "lecture des fils", map[string]interface{}{
			"commercial_id": commercialID,
		}, err)
		return nil, err
	}

	unread := 0
	for i := range threads {
		threads[i].NonLu = IsUnread(threads[i])
		if threads[i].NonLu {
			unread++
		}
	}
	SortThreads(threads)

	if threads == nil {
		threads = []dto.ThreadSummary{}
	}
	return &dto.ThreadListResponse{Items: threads, Total: len(threads), NonLus: unread}, nil
}

// GetThread fil complet; l'ouverture marque le fil comme lu par le commercial
func (s *ConsultationService) GetThread(ctx context.Context, id string) (*dto.Thread, error) {
	consultation, err := s.repo.GetConsultation(ctx, id)
	if err != nil {
		return nil, mapConsultationError(err, id)
	}

	messages, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	SortMessages(messages)
	if messages == nil {
		messages = []dto.Message{}
	}

	if err := s.repo.MarkRead(ctx, id); err != nil {
		s.logg.WithError(err).WithField("consultation_id", id).Warn("[CONSULTATIONS] marquage lu échoué")
	}
	return &dto.Thread{Consultation: *consultation, Messages: messages}, nil
}

// Reply ajoute une réponse du commercial, avec pièce jointe facultative
func (s *ConsultationService) Reply(ctx context.Context, id, auteurID, contenu string, upload *Upload) (*dto.Message, error) {
	contenu = NormalizeContenu(contenu)
	if contenu == "" && upload == nil {
		return nil, utils.NewServiceError("VALIDATION_ERROR", "Le message ou la pièce jointe est obligatoire", map[string]interface{}{
			"champs": map[string]string{"contenu": "Le message est vide"},
		})
	}

	consultation, err := s.repo.GetConsultation(ctx, id)
	if err != nil {
		return nil, mapConsultationError(err, id)
	}
	if !CanReply(consultation.Statut) {
		return nil, mapConsultationError(dto.ErrConsultationClosed, id)
	}

	msg := dto.NewMessage{ConsultationID: id, AuteurID: auteurID, Contenu: contenu}
	var stored *storage.StoredFile
	if upload != nil {
		stored, err = s.files.Save(upload.Name, upload.Reader)
		if err != nil {
			return nil, mapStorageError(err)
		}
		msg.PieceJointe = &stored.Nom
		if stored.Miniature != "" {
			msg.Miniature = &stored.Miniature
		}
	}

	created, err := s.repo.AppendCommercialMessage(ctx, msg)
	if err != nil {
		if stored != nil {
			s.files.Remove(stored.Nom, stored.Miniature)
		}
		if !errors.Is(err, dto.ErrConsultationNotFound) && !errors.Is(err, dto.ErrConsultationClosed) {
			logger.LogError(s.logg, "consultations", "Reply", "insertion du message", map[string]interface{}{
				"consultation_id": id,
			}, err)
		}
		return nil, mapConsultationError(err, id)
	}

	s.logg.WithFields(logrus.Fields{
		"consultation_id": id,
		"piece_jointe":    stored != nil,
	}).Info("[CONSULTATIONS] réponse envoyée")
	return created, nil
}

// AttachmentConsultation consultation propriétaire d'un fichier, pour le contrôle d'accès
func (s *ConsultationService) AttachmentConsultation(ctx context.Context, name string) (string, error) {
	if err := storage.ValidateName(name); err != nil {
		return "", mapStorageError(err)
	}
	id, err := s.repo.AttachmentOwner(ctx, name)
	if errors.Is(err, dto.ErrAttachmentNotFound) {
		return "", mapStorageError(storage.ErrFileNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("propriétaire de la pièce jointe: %w", err)
	}
	return id, nil
}

// AttachmentPath chemin sur disque d'un fichier validé
func (s *ConsultationService) AttachmentPath(name string) (string, error) {
	path, err := s.files.Resolve(name)
	if err != nil {
		return "", mapStorageError(err)
	}
	return path, nil
}

func mapConsultationError(err error, id string) error {
	details := map[string]interface{}{"consultation_id": id}
	switch {
	case errors.Is(err, dto.ErrConsultationNotFound):
		return utils.NewServiceError("CONSULTATION_NOT_FOUND", "Consultation introuvable", details)
	case errors.Is(err, dto.ErrConsultationClosed):
		return utils.NewServiceError("CONSULTATION_CLOSED", "La consultation est fermée", details)
	default:
		return err
	}
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		return utils.NewServiceError("INVALID_FILE_NAME", "Nom de fichier invalide", nil)
	case errors.Is(err, storage.ErrFileNotFound):
		return utils.NewServiceError("FILE_NOT_FOUND", "Fichier introuvable", nil)
	case errors.Is(err, storage.ErrTooLarge):
		return utils.NewServiceError("FILE_TOO_LARGE", "Le fichier dépasse la taille autorisée", nil)
	case errors.Is(err, storage.ErrEmptyFile):
		return utils.NewServiceError("VALIDATION_ERROR", "Le fichier est vide", nil)
	default:
		return err
	}
}
