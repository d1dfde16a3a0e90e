package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/formlab/formlab/config"
	"github.com/formlab/formlab/engine"
	"github.com/formlab/formlab/store"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Engine *engine.Engine
	Store  *store.SQL
}
