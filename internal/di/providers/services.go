package providers

import (
	"github.com/samber/do/v2"

	"github.com/illustrationsapp/illustrations-server/internal/logger"
	"github.com/illustrationsapp/illustrations-server/internal/service"
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideIllustrationService provides the illustration service.
func ProvideIllustrationService(i do.Injector) (*service.IllustrationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tagService := do.MustInvoke[*service.TagService](i)
	embedder := do.MustInvoke[*EmbedderHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIllustrationService(storeHandle.Store, tagService, embedder.Embedder, validator, log.Logger), nil
}

// ProvidePlaceService provides the place service.
func ProvidePlaceService(i do.Injector) (*service.PlaceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	illustrations := do.MustInvoke[*service.IllustrationService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPlaceService(storeHandle.Store, illustrations, validator, log.Logger), nil
}

// ProvideBulkService provides the bulk mutation service.
func ProvideBulkService(i do.Injector) (*service.BulkService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBulkService(storeHandle.Store, log.Logger), nil
}

// ProvideImporter provides the highlight export importer.
func ProvideImporter(i do.Injector) (*service.Importer, error) {
	illustrations := do.MustInvoke[*service.IllustrationService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewImporter(illustrations, log.Logger), nil
}
