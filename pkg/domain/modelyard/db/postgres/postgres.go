package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/modelyard/modelyard/pkg/conn/db/postgres/pool"
	kartifact "github.com/modelyard/modelyard/pkg/domain/artifact/db"
	kpgartifact "github.com/modelyard/modelyard/pkg/domain/artifact/db/postgres"
	kauth "github.com/modelyard/modelyard/pkg/domain/auth/db"
	kpgauth "github.com/modelyard/modelyard/pkg/domain/auth/db/postgres"
	kexperiment "github.com/modelyard/modelyard/pkg/domain/experiment/db"
	kpgexperiment "github.com/modelyard/modelyard/pkg/domain/experiment/db/postgres"
	kkeychain "github.com/modelyard/modelyard/pkg/domain/keychain/db"
	kpgkeychain "github.com/modelyard/modelyard/pkg/domain/keychain/db/postgres"
	kmodel "github.com/modelyard/modelyard/pkg/domain/model/db"
	kpgmodel "github.com/modelyard/modelyard/pkg/domain/model/db/postgres"
	dbInterface "github.com/modelyard/modelyard/pkg/domain/modelyard/db"
	krelease "github.com/modelyard/modelyard/pkg/domain/release/db"
	kpgrelease "github.com/modelyard/modelyard/pkg/domain/release/db/postgres"
	krun "github.com/modelyard/modelyard/pkg/domain/run/db"
	kpgrun "github.com/modelyard/modelyard/pkg/domain/run/db/postgres"
	kschema "github.com/modelyard/modelyard/pkg/domain/schema/db"
	kpgschema "github.com/modelyard/modelyard/pkg/domain/schema/db/postgres"
	xe "github.com/modelyard/modelyard/pkg/errors"
)

type yardDBPostgres struct {
	pool       *pgxpool.Pool
	experiment kexperiment.Interface
	runs       krun.Interface
	model      kmodel.Interface
	artifact   kartifact.Interface
	release    krelease.Interface
	auth       kauth.Interface
	keychain   kkeychain.KeychainInterface
	schema     kschema.SchemaInterface
}

type Config struct {
	SchemaRepository string
}

func DefaultConfig() Config {
	return Config{}
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.ModelyardDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := DefaultConfig()
	for _, option := range options {
		c = *option(&c)
	}

	p := kpool.Wrap(pool)
	var schema kschema.SchemaInterface = kpgschema.Null()
	if c.SchemaRepository != "" {
		schema = kpgschema.New(p, c.SchemaRepository)
	}

	return &yardDBPostgres{
		pool:       pool,
		experiment: kpgexperiment.New(p),
		runs:       kpgrun.New(p),
		model:      kpgmodel.New(p),
		artifact:   kpgartifact.New(p),
		release:    kpgrelease.New(p),
		auth:       kpgauth.New(p),
		keychain:   kpgkeychain.New(p),
		schema:     schema,
	}, nil
}

func (y *yardDBPostgres) Experiment() kexperiment.Interface {
	return y.experiment
}

func (y *yardDBPostgres) Run() krun.Interface {
	return y.runs
}

func (y *yardDBPostgres) Model() kmodel.Interface {
	return y.model
}

func (y *yardDBPostgres) Artifact() kartifact.Interface {
	return y.artifact
}

func (y *yardDBPostgres) Release() krelease.Interface {
	return y.release
}

func (y *yardDBPostgres) Auth() kauth.Interface {
	return y.auth
}

func (y *yardDBPostgres) Keychain() kkeychain.KeychainInterface {
	return y.keychain
}

func (y *yardDBPostgres) Schema() kschema.SchemaInterface {
	return y.schema
}

func (y *yardDBPostgres) Close() error {
	y.pool.Close()
	return nil
}
