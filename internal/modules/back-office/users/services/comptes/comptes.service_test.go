package comptes

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
	dto "sofimed-core/internal/modules/back-office/users/dto/comptes"
	"sofimed-core/internal/shared/utils"

	"github.com/shopspring/decimal"
)

type memoryComptes struct {
	users       map[string]*dto.TargetUser
	identifiant map[string]bool
	permissions map[string]map[string]bool
	catalog     []dto.PermissionCatalogEntry
	created     []dto.NewUserRecord
	profiles    []*dto.NewCommercialProfile
	statuts     map[string]string
}

func newMemoryComptes() *memoryComptes {
	return &memoryComptes{
		users: map[string]*dto.TargetUser{
			"u-super": {ID: "u-super", Role: dto.RoleSuperAdmin, Statut: dto.StatutActif},
			"u-admin": {ID: "u-admin", Role: dto.RoleAdmin, Statut: dto.StatutActif},
			"u-com":   {ID: "u-com", Role: dto.RoleCommercial, Statut: dto.StatutActif},
		},
		identifiant: map[string]bool{"existant": true},
		permissions: map[string]map[string]bool{"u-admin": {"admin.devis": true}},
		catalog: []dto.PermissionCatalogEntry{
			{Code: "commercial.clients", Module: "commercial", OrdreAffichage: 70},
			{Code: "admin.devis", Module: "administration", OrdreAffichage: 20},
			{Code: "admin.users", Module: "administration", OrdreAffichage: 40},
			{Code: "predictions.analyse", Module: "predictions", OrdreAffichage: 90},
		},
		statuts: map[string]string{},
	}
}

func (m *memoryComptes) ListUsers(ctx context.Context, filters dto.UserListFilters, limit, offset int) ([]dto.UserSummary, int, error) {
	return []dto.UserSummary{{ID: "u-admin"}}, 41, nil
}

func (m *memoryComptes) ListAdmins(ctx context.Context) ([]dto.AdminSummary, error) {
	return nil, nil
}

func (m *memoryComptes) GetPermissionCatalog(ctx context.Context) ([]dto.PermissionCatalogEntry, error) {
	return m.catalog, nil
}

func (m *memoryComptes) GetTargetUser(ctx context.Context, userID string) (*dto.TargetUser, error) {
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, dto.ErrUserNotFound
}

func (m *memoryComptes) IdentifiantExists(ctx context.Context, identifiant string) (bool, error) {
	return m.identifiant[strings.ToLower(identifiant)], nil
}

func (m *memoryComptes) CreateUser(ctx context.Context, user dto.NewUserRecord, permissions []string, profile *dto.NewCommercialProfile) (string, *string, error) {
	m.created = append(m.created, user)
	m.profiles = append(m.profiles, profile)
	var commercialID *string
	if profile != nil {
		id := "c-new"
		commercialID = &id
	}
	return "u-new", commercialID, nil
}

func (m *memoryComptes) ApplyPermissionChanges(ctx context.Context, userID, grantedBy string, ajouter, retirer []string) ([]string, error) {
	current := m.permissions[userID]
	if current == nil {
		current = map[string]bool{}
		m.permissions[userID] = current
	}
	for _, code := range retirer {
		delete(current, code)
	}
	for _, code := range ajouter {
		current[code] = true
	}
	codes := make([]string, 0, len(current))
	for code := range current {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func (m *memoryComptes) UpdateStatut(ctx context.Context, userID, statut, motif string) error {
	if _, ok := m.users[userID]; !ok {
		return dto.ErrUserNotFound
	}
	m.statuts[userID] = statut
	return nil
}

type fakeRevoker struct{ revoked []string }

func (f *fakeRevoker) RevokeUserSessions(ctx context.Context, userID string) (int, error) {
	f.revoked = append(f.revoked, userID)
	return 2, nil
}

type fakeInvalidator struct{ invalidated []string }

func (f *fakeInvalidator) InvalidateUserPermissions(ctx context.Context, userID string) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func newTestService() (*ComptesService, *memoryComptes, *fakeRevoker, *fakeInvalidator) {
	repo := newMemoryComptes()
	revoker := &fakeRevoker{}
	invalidator := &fakeInvalidator{}
	cfg := &config.Config{
		Auth:      config.AuthConfig{BcryptCost: 4},
		Bootstrap: config.BootstrapConfig{DefaultPhoneRegion: "MA"},
	}
	return NewComptesService(repo, revoker, invalidator, cfg, logger.NewDiscardLogger()), repo, revoker, invalidator
}

func serviceErrorCode(t *testing.T, err error) string {
	t.Helper()
	var svcErr *utils.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected a ServiceError, got %v", err)
	}
	return svcErr.Code
}

func TestCreateAdminGeneratesPassword(t *testing.T) {
	service, repo, _, _ := newTestService()

	result, err := service.CreateAdmin(context.Background(), dto.CreateAdminRequest{
		Identifiant: " nouvel.admin ",
		Nom:         "Alaoui",
		Prenoms:     "Samira",
		Telephone:   "0612345678",
		Permissions: []string{"admin.devis", "admin.devis", "admin.users"},
	}, "u-super")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PasswordTemporaire == nil || len(*result.PasswordTemporaire) != 12 {
		t.Fatalf("expected a generated 12 char password, got %v", result.PasswordTemporaire)
	}
	if !result.MustChangePassword {
		t.Fatalf("new accounts must change their password")
	}
	if len(result.Permissions) != 2 {
		t.Fatalf("duplicate codes must be collapsed, got %v", result.Permissions)
	}

	created := repo.created[0]
	if created.Identifiant != "nouvel.admin" || created.Role != dto.RoleAdmin {
		t.Fatalf("unexpected record: %+v", created)
	}
	if created.Telephone == nil || *created.Telephone != "+212612345678" {
		t.Fatalf("phone must be normalized to E164, got %v", created.Telephone)
	}
	if !utils.VerifyPassword(*result.PasswordTemporaire, created.PasswordHash) {
		t.Fatalf("stored hash must match the returned password")
	}
}

func TestCreateAdminWithProvidedPasswordReturnsNoSecret(t *testing.T) {
	service, _, _, _ := newTestService()
	password := "MotDePasse#2024"

	result, err := service.CreateAdmin(context.Background(), dto.CreateAdminRequest{
		Identifiant: "admin2", Nom: "Nom", Prenoms: "Prenom", Password: &password,
	}, "u-super")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PasswordTemporaire != nil {
		t.Fatalf("provided passwords must not be echoed back")
	}
}

func TestCreateUserRejectsDuplicateIdentifier(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.CreateAdmin(context.Background(), dto.CreateAdminRequest{
		Identifiant: "EXISTANT", Nom: "Nom", Prenoms: "Prenom",
	}, "u-super")
	if code := serviceErrorCode(t, err); code != "DUPLICATE_IDENTIFIER" {
		t.Fatalf("expected DUPLICATE_IDENTIFIER, got %s", code)
	}
}

func TestCreateUserRejectsUnknownPermission(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.CreateAdmin(context.Background(), dto.CreateAdminRequest{
		Identifiant: "admin3", Nom: "Nom", Prenoms: "Prenom", Permissions: []string{"admin.inexistante"},
	}, "u-super")
	if code := serviceErrorCode(t, err); code != "UNKNOWN_PERMISSION" {
		t.Fatalf("expected UNKNOWN_PERMISSION, got %s", code)
	}
}

func TestCreateCommercial(t *testing.T) {
	service, repo, _, _ := newTestService()

	_, err := service.CreateCommercial(context.Background(), dto.CreateCommercialRequest{
		Identifiant: "com1", Nom: "Nom", Prenoms: "Prenom", Region: "Casablanca",
		ObjectifMensuel: decimal.RequireFromString("150000"),
		Permissions:     []string{"admin.devis"},
	}, "u-super")
	if code := serviceErrorCode(t, err); code != "PERMISSION_NOT_ALLOWED_FOR_ROLE" {
		t.Fatalf("commercials cannot hold admin permissions, got %s", code)
	}

	_, err = service.CreateCommercial(context.Background(), dto.CreateCommercialRequest{
		Identifiant: "com1", Nom: "Nom", Prenoms: "Prenom", Region: "Casablanca",
		ObjectifMensuel: decimal.RequireFromString("-1"),
	}, "u-super")
	if code := serviceErrorCode(t, err); code != "VALIDATION_ERROR" {
		t.Fatalf("negative objective must be rejected, got %s", code)
	}

	result, err := service.CreateCommercial(context.Background(), dto.CreateCommercialRequest{
		Identifiant: "com1", Nom: "Nom", Prenoms: "Prenom", Region: "Casablanca",
		ObjectifMensuel: decimal.RequireFromString("150000.456"),
		Permissions:     []string{"commercial.clients"},
	}, "u-super")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CommercialID == nil || *result.CommercialID != "c-new" {
		t.Fatalf("commercial profile id expected, got %v", result.CommercialID)
	}
	profile := repo.profiles[len(repo.profiles)-1]
	if profile.ObjectifMensuel.String() != "150000.46" {
		t.Fatalf("objective must be rounded to cents, got %s", profile.ObjectifMensuel)
	}
}

func TestModifyPermissions(t *testing.T) {
	service, _, _, invalidator := newTestService()
	ctx := context.Background()

	result, err := service.ModifyPermissions(ctx, "u-admin", "u-super", dto.ModifyPermissionsRequest{
		Ajouter: []string{"admin.users"},
		Retirer: []string{"admin.devis"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Permissions) != 1 || result.Permissions[0] != "admin.users" {
		t.Fatalf("unexpected final permissions: %v", result.Permissions)
	}
	if len(invalidator.invalidated) != 1 || invalidator.invalidated[0] != "u-admin" {
		t.Fatalf("permission cache must be invalidated, got %v", invalidator.invalidated)
	}

	cases := []struct {
		name     string
		target   string
		actor    string
		req      dto.ModifyPermissionsRequest
		expected string
	}{
		{"self", "u-admin", "u-admin", dto.ModifyPermissionsRequest{Ajouter: []string{"admin.users"}}, "SELF_MODIFICATION_FORBIDDEN"},
		{"empty", "u-admin", "u-super", dto.ModifyPermissionsRequest{}, "VALIDATION_ERROR"},
		{"both", "u-admin", "u-super", dto.ModifyPermissionsRequest{Ajouter: []string{"admin.users"}, Retirer: []string{"admin.users"}}, "VALIDATION_ERROR"},
		{"missing", "u-inconnu", "u-super", dto.ModifyPermissionsRequest{Ajouter: []string{"admin.users"}}, "USER_NOT_FOUND"},
		{"super", "u-super", "u-admin", dto.ModifyPermissionsRequest{Ajouter: []string{"admin.users"}}, "SUPER_ADMIN_IMMUTABLE"},
		{"commercial", "u-com", "u-super", dto.ModifyPermissionsRequest{Ajouter: []string{"admin.devis"}}, "PERMISSION_NOT_ALLOWED_FOR_ROLE"},
	}
	for _, tc := range cases {
		_, err := service.ModifyPermissions(ctx, tc.target, tc.actor, tc.req)
		if code := serviceErrorCode(t, err); code != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, code)
		}
	}
}

func TestUpdateStatutRevokesSessionsOnSuspension(t *testing.T) {
	service, repo, revoker, _ := newTestService()
	ctx := context.Background()

	result, err := service.UpdateStatut(ctx, "u-com", "u-admin", dto.UpdateStatutRequest{Statut: dto.StatutSuspendu, Motif: "Départ"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SessionsRevoquees != 2 || len(revoker.revoked) != 1 {
		t.Fatalf("suspension must revoke sessions, got %+v", result)
	}
	if repo.statuts["u-com"] != dto.StatutSuspendu {
		t.Fatalf("statut not persisted")
	}

	if _, err := service.UpdateStatut(ctx, "u-com", "u-admin", dto.UpdateStatutRequest{Statut: dto.StatutActif}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(revoker.revoked) != 1 {
		t.Fatalf("reactivation must not revoke sessions")
	}

	_, err = service.UpdateStatut(ctx, "u-super", "u-admin", dto.UpdateStatutRequest{Statut: dto.StatutSuspendu})
	if code := serviceErrorCode(t, err); code != "SUPER_ADMIN_IMMUTABLE" {
		t.Fatalf("expected SUPER_ADMIN_IMMUTABLE, got %s", code)
	}
}

func TestListUsersPagination(t *testing.T) {
	service, _, _, _ := newTestService()

	result, err := service.ListUsers(context.Background(), dto.UserListFilters{Page: 2, Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Pagination.TotalPages != 3 || !result.Pagination.HasNext || !result.Pagination.HasPrev {
		t.Fatalf("unexpected pagination: %+v", result.Pagination)
	}
}

func TestGroupPermissionsByModule(t *testing.T) {
	groups := GroupPermissionsByModule(newMemoryComptes().catalog)

	if len(groups) != 3 {
		t.Fatalf("expected 3 modules, got %d", len(groups))
	}
	if groups[0].Module != "administration" || len(groups[0].Permissions) != 2 {
		t.Fatalf("administration must come first with 2 permissions, got %+v", groups[0])
	}
	if groups[0].Permissions[0].Code != "admin.devis" {
		t.Fatalf("display order must be kept, got %s", groups[0].Permissions[0].Code)
	}
}
