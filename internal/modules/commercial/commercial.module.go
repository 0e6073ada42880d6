package commercial

import (
	"go.uber.org/fx"

	"sofimed-core/internal/modules/commercial/consultations"
	"sofimed-core/internal/modules/commercial/negociation"
	"sofimed-core/internal/modules/commercial/portefeuille"
)

// Module regroupe l'espace commercial: portefeuille, consultations clients et négociation
var Module = fx.Options(
	portefeuille.Module,
	consultations.Module,
	negociation.Module,
)
