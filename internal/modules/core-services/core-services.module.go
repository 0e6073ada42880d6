package core_services

import (
	"go.uber.org/fx"

	"sofimed-core/internal/modules/core-services/client"
	"sofimed-core/internal/modules/core-services/negotiation"
	"sofimed-core/internal/modules/core-services/scope"
)

// Module regroupe les services métier partagés (Core Services)
// Ces services sont réutilisables par plusieurs modules sans avoir d'endpoints propres
var Module = fx.Options(
	// Rattachement commercial des ressources
	scope.Module,

	// Indicateurs client (statistiques, sessions, temps de réponse)
	client.Module,

	// Analyse des négociations de devis
	negotiation.Module,
)
