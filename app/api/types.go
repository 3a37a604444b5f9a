package api

import (
	"github.com/yikao/finfeed/app/collection"
	"github.com/yikao/finfeed/app/database"
)

// Handler bundles the dependencies behind the HTTP surface.
type Handler struct {
	articles database.ArticleRepository
	logs     database.CollectionLogRepository
	manager  collection.ManagerInterface
	runner   *collection.Runner
	version  string
}
