package internal

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openquiz/triviad/internal/core"
	"github.com/openquiz/triviad/internal/core/data"
	"github.com/openquiz/triviad/internal/game"
)

// Controller is the main entrypoint for triviad. It's responsible for
// initializing the shared resources (database and logging), defining the
// game server, and launching everything.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	db     *gorm.DB
	wg     sync.WaitGroup
}

func (c *Controller) Start(ctx context.Context) error {
	var err error
	// Set up the logger, which will be used by all components.
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		return err
	}

	c.db, err = data.Initialize(c.Config)
	if err != nil {
		return err
	}
	defer func() {
		if err := data.Shutdown(c.db); err != nil {
			c.logger.Errorf("error shutting down data layer: %v", err)
		}
	}()

	server := &frontend{
		Address: c.Config.ListenAddress(),
		Backend: game.NewServer("TRIVIA", c.Config, c.logger, c.db),
		Config:  c.Config,
		Logger:  c.logger,
	}

	if err := server.Start(ctx, &c.wg); err != nil {
		c.logger.Errorf("error starting %s server: %v", server.Backend.Identifier(), err)
		return err
	}

	c.wg.Wait()
	return nil
}
