package server_test

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/selectdimensions/react-flow-testbed/internal/assert/helpers"
	"github.com/selectdimensions/react-flow-testbed/internal/server"
	"github.com/selectdimensions/react-flow-testbed/internal/store"
)

type failingStore struct {
	store.Store
}

var errDiskOnFire = errors.New("disk on fire")

func (failingStore) List(context.Context) ([]*store.Record, error) {
	return nil, errDiskOnFire
}

func newRouterWithLimit(env *helpers.TestEnv, limit int64) *gin.Engine {
	return server.NewServer(env.Service, env.Hub, limit).SetupRoutes()
}
