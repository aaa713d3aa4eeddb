package handler

import (
	"hubchat/internal/app/realtime"
	"hubchat/internal/app/storage"
	"hubchat/internal/app/store"
	"hubchat/internal/configs"
)

// AppDeps bundles the shared collaborators every handler needs.
type AppDeps struct {
	Config  *configs.AppConfig
	Store   *store.Store
	Gateway *realtime.Gateway
	Storage storage.StorageService
}
