package modelyard

import (
	"context"

	sconf "github.com/modelyard/modelyard/pkg/configs/server"
	"github.com/modelyard/modelyard/pkg/domain/artifact"
	"github.com/modelyard/modelyard/pkg/domain/auth"
	"github.com/modelyard/modelyard/pkg/domain/experiment"
	"github.com/modelyard/modelyard/pkg/domain/keychain"
	"github.com/modelyard/modelyard/pkg/domain/model"
	"github.com/modelyard/modelyard/pkg/domain/modelyard/db/postgres"
	"github.com/modelyard/modelyard/pkg/domain/release"
	"github.com/modelyard/modelyard/pkg/domain/run"
	"github.com/modelyard/modelyard/pkg/domain/schema"
)

type Modelyard interface {
	Config() *sconf.ServerConfig

	Experiment() experiment.Interface
	Run() run.Interface
	Model() model.Interface
	Artifact() artifact.Interface
	Release() release.Interface

	Auth() auth.Interface
	Keychain() keychain.Interface
	Schema() schema.Interface

	Close() error
}

type modelyard struct {
	config *sconf.ServerConfig

	experiment experiment.Interface
	run        run.Interface
	model      model.Interface
	artifact   artifact.Interface
	release    release.Interface

	auth     auth.Interface
	keychain keychain.Interface
	schema   schema.Interface

	close func() error
}

func Default(
	ctx context.Context,
	config *sconf.ServerConfig,
	options ...Option,
) (Modelyard, error) {
	return New(ctx, config, options...)
}

func New(
	ctx context.Context,
	config *sconf.ServerConfig,
	options ...Option,
) (Modelyard, error) {
	opt := &_options{}
	for _, o := range options {
		o(opt)
	}

	pg, err := postgres.New(ctx, config.Database(), opt.pg...)
	if err != nil {
		return nil, err
	}

	return &modelyard{
		config: config,

		experiment: experiment.New(pg.Experiment()),
		run:        run.New(pg.Run()),
		model:      model.New(pg.Model()),
		artifact:   artifact.New(pg.Artifact()),
		release:    release.New(pg.Release()),

		auth:     auth.New(pg.Auth()),
		keychain: keychain.New(pg.Keychain()),
		schema:   schema.New(pg.Schema()),

		close: pg.Close,
	}, nil
}

type Option func(*_options)

type _options struct {
	pg []postgres.Option
}

func WithSchemaRepository(repository string) Option {
	return func(o *_options) {
		o.pg = append(o.pg, postgres.WithSchemaRepository(repository))
	}
}

func (y *modelyard) Config() *sconf.ServerConfig {
	return y.config
}

func (y *modelyard) Experiment() experiment.Interface {
	return y.experiment
}

func (y *modelyard) Run() run.Interface {
	return y.run
}

func (y *modelyard) Model() model.Interface {
	return y.model
}

func (y *modelyard) Artifact() artifact.Interface {
	return y.artifact
}

func (y *modelyard) Release() release.Interface {
	return y.release
}

func (y *modelyard) Auth() auth.Interface {
	return y.auth
}

func (y *modelyard) Keychain() keychain.Interface {
	return y.keychain
}

func (y *modelyard) Schema() schema.Interface {
	return y.schema
}

func (y *modelyard) Close() error {
	return y.close()
}
