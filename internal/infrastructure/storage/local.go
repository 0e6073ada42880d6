package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"sofimed-core/internal/app/config"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	thumbnailWidth  = 200
	thumbnailPrefix = "thumb_"
)

var (
	ErrInvalidName  = errors.New("nom de fichier invalide")
	ErrFileNotFound = errors.New("fichier introuvable")
	ErrTooLarge     = errors.New("fichier trop volumineux")
	ErrEmptyFile    = errors.New("fichier vide")
)

// noms générés: uuid + extension courte, rien d'autre n'est servi
var storedNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,80}(\.[A-Za-z0-9]{1,10})?$`)

var thumbnailTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// StoredFile résultat d'un dépôt; Miniature vide si le fichier n'est pas une image
type StoredFile struct {
	Nom         string
	Miniature   string
	ContentType string
	Taille      int64
}

// LocalStorage pièces jointes sur disque, un répertoire plat
type LocalStorage struct {
	dir      string
	maxBytes int64
	logg     *logrus.Logger
}

func NewLocalStorage(cfg *config.Config, logg *logrus.Logger) (*LocalStorage, error) {
	storageCfg := cfg.GetStorage()
	if err := os.MkdirAll(storageCfg.AttachmentsDir, 0o750); err != nil {
		return nil, fmt.Errorf("création du répertoire %s: %w", storageCfg.AttachmentsDir, err)
	}

	logg.Infof("[STORAGE] Pièces jointes dans %s (max %d octets)", storageCfg.AttachmentsDir, storageCfg.MaxUploadBytes)
	return &LocalStorage{
		dir:      storageCfg.AttachmentsDir,
		maxBytes: storageCfg.MaxUploadBytes,
		logg:     logg,
	}, nil
}

func (s *LocalStorage) MaxBytes() int64 {
	return s.maxBytes
}

// Save écrit le contenu sous un nom uuid; les images reçoivent une miniature JPEG
func (s *LocalStorage) Save(originalName string, r io.Reader) (*StoredFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("lecture du fichier: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	stored := &StoredFile{
		Nom:         uuid.NewString() + safeExtension(originalName),
		ContentType: http.DetectContentType(data),
		Taille:      int64(len(data)),
	}
	if err := os.WriteFile(filepath.Join(s.dir, stored.Nom), data, 0o640); err != nil {
		return nil, fmt.Errorf("écriture de %s: %w", stored.Nom, err)
	}

	if thumbnailTypes[stored.ContentType] {
		name, err := s.writeThumbnail(stored.Nom, data)
		if err != nil {
			s.logg.WithError(err).WithField("fichier", stored.Nom).Warn("[STORAGE] miniature non générée")
		} else {
			stored.Miniature = name
		}
	}
	return stored, nil
}

func (s *LocalStorage) writeThumbnail(name string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	thumbnail := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", err
	}

	thumbName := thumbnailPrefix + strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	if err := os.WriteFile(filepath.Join(s.dir, thumbName), buf.Bytes(), 0o640); err != nil {
		return "", err
	}
	return thumbName, nil
}

// Resolve chemin absolu d'un fichier déposé; refuse tout nom qui sortirait du répertoire
func (s *LocalStorage) Resolve(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", ErrFileNotFound
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// Remove supprime sans échouer; utilisé pour annuler un dépôt
func (s *LocalStorage) Remove(names ...string) {
	for _, name := range names {
		if name == "" || ValidateName(name) != nil {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logg.WithError(err).WithField("fichier", name).Warn("[STORAGE] suppression échouée")
		}
	}
}

func ValidateName(name string) error {
	if name != filepath.Base(name) || strings.Contains(name, "..") || !storedNamePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

func safeExtension(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if ext == "" || !storedNamePattern.MatchString("x"+ext) {
		return ""
	}
	return ext
}
