package comptes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
	dto "sofimed-core/internal/modules/back-office/users/dto/comptes"
	"sofimed-core/internal/shared/utils"

	"github.com/sirupsen/logrus"
)

// ComptesRepository persistance des comptes et de leurs permissions
type ComptesRepository interface {
	ListUsers(ctx context.Context, filters dto.UserListFilters, limit, offset int) ([]dto.UserSummary, int, error)
	ListAdmins(ctx context.Context) ([]dto.AdminSummary, error)
	GetPermissionCatalog(ctx context.Context) ([]dto.PermissionCatalogEntry, error)
	GetTargetUser(ctx context.Context, userID string) (*dto.TargetUser, error)
	IdentifiantExists(ctx context.Context, identifiant string) (bool, error)
	CreateUser(ctx context.Context, user dto.NewUserRecord, permissions []string, profile *dto.NewCommercialProfile) (string, *string, error)
	ApplyPermissionChanges(ctx context.Context, userID, grantedBy string, ajouter, retirer []string) ([]string, error)
	UpdateStatut(ctx context.Context, userID, statut, motif string) error
}

// SessionRevoker révoque toutes les sessions d'un compte suspendu
type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID string) (int, error)
}

// PermissionInvalidator purge le cache de permissions d'un compte
type PermissionInvalidator interface {
	InvalidateUserPermissions(ctx context.Context, userID string) error
}

type ComptesService struct {
	repo        ComptesRepository
	sessions    SessionRevoker
	permissions PermissionInvalidator
	bcryptCost  int
	phoneRegion string
	logg        *logrus.Logger
}

func NewComptesService(
	repo ComptesRepository,
	sessions SessionRevoker,
	permissions PermissionInvalidator,
	cfg *config.Config,
	logg *logrus.Logger,
) *ComptesService {
	return &ComptesService{
		repo:        repo,
		sessions:    sessions,
		permissions: permissions,
		bcryptCost:  cfg.GetAuth().BcryptCost,
		phoneRegion: cfg.Bootstrap.DefaultPhoneRegion,
		logg:        logg,
	}
}

// ListUsers liste paginée avec le nombre de permissions de chaque compte
func (s *ComptesService) ListUsers(ctx context.Context, filters dto.UserListFilters) (*dto.UserListResponse, error) {
	page, limit, offset := utils.NormalizePage(filters.Page, filters.Limit)
	filters.Search = strings.TrimSpace(filters.Search)

	users, total, err := s.repo.ListUsers(ctx, filters, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la récupération des utilisateurs: %w", err)
	}
	if users == nil {
		users = []dto.UserSummary{}
	}

	return &dto.UserListResponse{
		Users:      users,
		Pagination: utils.NewPagination(page, limit, total),
	}, nil
}

func (s *ComptesService) ListAdmins(ctx context.Context) ([]dto.AdminSummary, error) {
	admins, err := s.repo.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la récupération des administrateurs: %w", err)
	}
	if admins == nil {
		admins = []dto.AdminSummary{}
	}
	return admins, nil
}

// GetPermissionsOverview catalogue groupé par module et permissions de chaque admin
func (s *ComptesService) GetPermissionsOverview(ctx context.Context) (*dto.PermissionsOverview, error) {
	catalog, err := s.repo.GetPermissionCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la récupération du catalogue: %w", err)
	}
	admins, err := s.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.PermissionsOverview{
		Modules: GroupPermissionsByModule(catalog),
		Admins:  admins,
	}, nil
}

// GroupPermissionsByModule conserve l'ordre d'affichage du catalogue
func GroupPermissionsByModule(catalog []dto.PermissionCatalogEntry) []dto.PermissionModuleGroup {
	sorted := make([]dto.PermissionCatalogEntry, len(catalog))
	copy(sorted, catalog)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OrdreAffichage != sorted[j].OrdreAffichage {
			return sorted[i].OrdreAffichage < sorted[j].OrdreAffichage
		}
		return sorted[i].Code < sorted[j].Code
	})

	groups := []dto.PermissionModuleGroup{}
	index := make(map[string]int)
	for _, entry := range sorted {
		i, ok := index[entry.Module]
		if !ok {
			i = len(groups)
			index[entry.Module] = i
			groups = append(groups, dto.PermissionModuleGroup{Module: entry.Module})
		}
		groups[i].Permissions = append(groups[i].Permissions, entry)
	}
	return groups
}

func (s *ComptesService) CreateAdmin(ctx context.Context, req dto.CreateAdminRequest, createdBy string) (*dto.CreateUserResponse, error) {
	record := dto.NewUserRecord{
		Identifiant: strings.TrimSpace(req.Identifiant),
		Email:       optional(req.Email),
		Nom:         strings.TrimSpace(req.Nom),
		Prenoms:     strings.TrimSpace(req.Prenoms),
		Departement: optional(req.Departement),
		Role:        dto.RoleAdmin,
		CreatedBy:   createdBy,
	}
	return s.createUser(ctx, record, req.Telephone, req.Password, req.Permissions, nil)
}

func (s *ComptesService) CreateCommercial(ctx context.Context, req dto.CreateCommercialRequest, createdBy string) (*dto.CreateUserResponse, error) {
	if req.ObjectifMensuel.IsNegative() {
		return nil, utils.NewServiceError("VALIDATION_ERROR", "Données invalides", map[string]interface{}{
			"champs": map[string]string{"objectif_mensuel": "Doit être supérieur ou égal à 0"},
		})
	}

	record := dto.NewUserRecord{
		Identifiant: strings.TrimSpace(req.Identifiant),
		Email:       optional(req.Email),
		Nom:         strings.TrimSpace(req.Nom),
		Prenoms:     strings.TrimSpace(req.Prenoms),
		Departement: optional(req.Departement),
		Role:        dto.RoleCommercial,
		CreatedBy:   createdBy,
	}
	profile := &dto.NewCommercialProfile{
		Region:          strings.TrimSpace(req.Region),
		ObjectifMensuel: req.ObjectifMensuel.Round(2),
	}
	return s.createUser(ctx, record, req.Telephone, req.Password, req.Permissions, profile)
}

func (s *ComptesService) createUser(
	ctx context.Context,
	record dto.NewUserRecord,
	telephone string,
	password *string,
	permissions []string,
	profile *dto.NewCommercialProfile,
) (*dto.CreateUserResponse, error) {
	if telephone != "" {
		normalized, err := utils.NormalizePhone(telephone, s.phoneRegion)
		if err != nil {
			return nil, utils.NewServiceError("VALIDATION_ERROR", "Données invalides", map[string]interface{}{
				"champs": map[string]string{"telephone": "Numéro de téléphone invalide"},
			})
		}
		record.Telephone = &normalized
	}

	codes := dedupe(permissions)
	if err := s.validatePermissionCodes(ctx, record.Role, codes); err != nil {
		return nil, err
	}

	exists, err := s.repo.IdentifiantExists(ctx, record.Identifiant)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la vérification de l'identifiant: %w", err)
	}
	if exists {
		return nil, duplicateIdentifierError()
	}

	var generated *string
	plain := ""
	if password != nil && *password != "" {
		plain = *password
	} else {
		plain, err = utils.GenerateSecurePassword()
		if err != nil {
			return nil, fmt.Errorf("erreur génération mot de passe: %w", err)
		}
		generated = &plain
	}

	record.PasswordHash, err = utils.HashPassword(plain, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la préparation du mot de passe: %w", err)
	}

	userID, commercialID, err := s.repo.CreateUser(ctx, record, codes, profile)
	if err != nil {
		if errors.Is(err, dto.ErrDuplicateIdentifier) {
			return nil, duplicateIdentifierError()
		}
		logger.LogError(s.logg, "users", "createUser", "insertion compte", map[string]interface{}{
			"identifiant": record.Identifiant,
			"role":        record.Role,
		}, err)
		return nil, fmt.Errorf("erreur lors de la création de l'utilisateur: %w", err)
	}

	s.logg.WithFields(logrus.Fields{
		"user_id":     userID,
		"role":        record.Role,
		"created_by":  record.CreatedBy,
		"permissions": len(codes),
	}).Info("Compte créé")

	return &dto.CreateUserResponse{
		ID:                 userID,
		Identifiant:        record.Identifiant,
		Role:               record.Role,
		CommercialID:       commercialID,
		Permissions:        codes,
		MustChangePassword: true,
		PasswordTemporaire: generated,
		Message:            "Utilisateur créé avec succès",
	}, nil
}

// ModifyPermissions ajoute et retire des permissions dans une seule transaction
func (s *ComptesService) ModifyPermissions(ctx context.Context, targetID, actorID string, req dto.ModifyPermissionsRequest) (*dto.ModifyPermissionsResponse, error) {
	if targetID == actorID {
		return nil, utils.NewServiceError("SELF_MODIFICATION_FORBIDDEN",
			"Vous ne pouvez pas modifier vos propres permissions", nil)
	}

	ajouter := dedupe(req.Ajouter)
	retirer := dedupe(req.Retirer)
	if len(ajouter) == 0 && len(retirer) == 0 {
		return nil, utils.NewServiceError("VALIDATION_ERROR", "Aucune modification demandée", map[string]interface{}{
			"champs": map[string]string{"ajouter": "Au moins une permission à ajouter ou retirer"},
		})
	}
	for _, code := range ajouter {
		if contains(retirer, code) {
			return nil, utils.NewServiceError("VALIDATION_ERROR", "Une permission ne peut pas être ajoutée et retirée", map[string]interface{}{
				"permission": code,
			})
		}
	}

	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == dto.RoleSuperAdmin {
		return nil, utils.NewServiceError("SUPER_ADMIN_IMMUTABLE",
			"Les permissions du super administrateur ne sont pas modifiables", nil)
	}

	if err := s.validatePermissionCodes(ctx, target.Role, append(append([]string{}, ajouter...), retirer...)); err != nil {
		return nil, err
	}

	final, err := s.repo.ApplyPermissionChanges(ctx, targetID, actorID, ajouter, retirer)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la modification des permissions: %w", err)
	}
	if final == nil {
		final = []string{}
	}

	if err := s.permissions.InvalidateUserPermissions(ctx, targetID); err != nil {
		logger.LogError(s.logg, "users", "ModifyPermissions", "invalidation cache permissions", map[string]interface{}{
			"user_id": targetID,
		}, err)
	}

	return &dto.ModifyPermissionsResponse{
		UserID:      targetID,
		Ajoutees:    ajouter,
		Retirees:    retirer,
		Permissions: final,
	}, nil
}

// UpdateStatut suspend ou réactive un compte; la suspension révoque ses sessions
func (s *ComptesService) UpdateStatut(ctx context.Context, targetID, actorID string, req dto.UpdateStatutRequest) (*dto.UpdateStatutResponse, error) {
	if targetID == actorID {
		return nil, utils.NewServiceError("SELF_MODIFICATION_FORBIDDEN",
			"Vous ne pouvez pas modifier votre propre statut", nil)
	}

	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == dto.RoleSuperAdmin {
		return nil, utils.NewServiceError("SUPER_ADMIN_IMMUTABLE",
			"Le statut du super administrateur n'est pas modifiable", nil)
	}

	if err := s.repo.UpdateStatut(ctx, targetID, req.Statut, strings.TrimSpace(req.Motif)); err != nil {
		if errors.Is(err, dto.ErrUserNotFound) {
			return nil, notFoundError()
		}
		return nil, fmt.Errorf("erreur lors du changement de statut: %w", err)
	}

	revoked := 0
	if req.Statut == dto.StatutSuspendu {
		revoked, err = s.sessions.RevokeUserSessions(ctx, targetID)
		if err != nil {
			return nil, fmt.Errorf("compte suspendu mais révocation des sessions échouée: %w", err)
		}
	}

	s.logg.WithFields(logrus.Fields{
		"user_id":  targetID,
		"statut":   req.Statut,
		"actor_id": actorID,
		"revoked":  revoked,
	}).Info("Statut du compte modifié")

	return &dto.UpdateStatutResponse{
		UserID:            targetID,
		Statut:            req.Statut,
		SessionsRevoquees: revoked,
	}, nil
}

func (s *ComptesService) getTarget(ctx context.Context, userID string) (*dto.TargetUser, error) {
	target, err := s.repo.GetTargetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, dto.ErrUserNotFound) {
			return nil, notFoundError()
		}
		return nil, fmt.Errorf("erreur lors de la récupération de l'utilisateur: %w", err)
	}
	return target, nil
}

// validatePermissionCodes: codes connus, et pas de admin.* pour un commercial
func (s *ComptesService) validatePermissionCodes(ctx context.Context, role string, codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	catalog, err := s.repo.GetPermissionCatalog(ctx)
	if err != nil {
		return fmt.Errorf("erreur lors de la récupération du catalogue: %w", err)
	}
	known := make(map[string]bool, len(catalog))
	for _, entry := range catalog {
		known[entry.Code] = true
	}

	var unknown, forbidden []string
	for _, code := range codes {
		if !known[code] {
			unknown = append(unknown, code)
			continue
		}
		if role == dto.RoleCommercial && strings.HasPrefix(code, dto.AdminPermissionPrefix) {
			forbidden = append(forbidden, code)
		}
	}

	if len(unknown) > 0 {
		return utils.NewServiceError("UNKNOWN_PERMISSION", "Certaines permissions n'existent pas", map[string]interface{}{
			"permissions": unknown,
		})
	}
	if len(forbidden) > 0 {
		return utils.NewServiceError("PERMISSION_NOT_ALLOWED_FOR_ROLE",
			"Un commercial ne peut pas recevoir de permission d'administration", map[string]interface{}{
				"permissions": forbidden,
			})
	}
	return nil
}

func duplicateIdentifierError() error {
	return utils.NewServiceError("DUPLICATE_IDENTIFIER", "Cet identifiant existe déjà", map[string]interface{}{
		"champs": map[string]string{"identifiant": "Cet identifiant existe déjà"},
	})
}

func notFoundError() error {
	return utils.NewServiceError("USER_NOT_FOUND", "Utilisateur introuvable", nil)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func dedupe(codes []string) []string {
	result := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		result = append(result, code)
	}
	return result
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
