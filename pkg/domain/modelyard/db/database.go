package db

import (
	kartifact "github.com/modelyard/modelyard/pkg/domain/artifact/db"
	kauth "github.com/modelyard/modelyard/pkg/domain/auth/db"
	kexperiment "github.com/modelyard/modelyard/pkg/domain/experiment/db"
	kkeychain "github.com/modelyard/modelyard/pkg/domain/keychain/db"
	kmodel "github.com/modelyard/modelyard/pkg/domain/model/db"
	krelease "github.com/modelyard/modelyard/pkg/domain/release/db"
	krun "github.com/modelyard/modelyard/pkg/domain/run/db"
	kschema "github.com/modelyard/modelyard/pkg/domain/schema/db"
)

type ModelyardDatabase interface {
	Experiment() kexperiment.Interface
	Run() krun.Interface
	Model() kmodel.Interface
	Artifact() kartifact.Interface
	Release() krelease.Interface
	Auth() kauth.Interface
	Keychain() kkeychain.KeychainInterface
	Schema() kschema.SchemaInterface
	Close() error
}
