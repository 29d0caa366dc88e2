package domain

// domain package contains the Domain Models and Interfaces for the Modelyard application.
//
// `domain/modelyard` package exposes root object for the Modelyard application.
// Entrypoints of applications should instantiage the Modelyard object and use it to interact with the domain.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and functions.
// For example, `domain/run.go` contains the `Run` entity.
//
// `domain/ENTITY` directory contains the "phisical" representation of the domain entities in the RDB.
// For example, `domain/run/db/run.go` declares the database expression of the run entity described in `domain/run.go`,
// and `domain/run/db/postgres/` implements it.
//
// `domain/ENTITY/interface.go` exposes the client interface to handle the domain entity in DB.
//
// # Entities
//
// Core entities in the domain are:
//
// - `experiment`: Named bucket grouping Runs. They can be Tagged.
// Experiments are cheap: one per modelling effort, holding every trial of it.
//
// - `run`: Execution of a training and the record of the execution.
// This includes hyperparameters, metric observations over steps and Artifacts pushed from the workspace.
// Runs carry a deadline, and the "housekeeping loop" kills Runs which pass it without reaching a terminal status.
//
// - `model`: Named line of ModelVersions sharing a GatePolicy.
// Registering a finished Run's Artifact under a Model creates the next ModelVersion in status `pending`.
// The "gatekeeper loop" evaluates gates (loading, performance) on pending versions and marks them `ready` or `rejected`.
// Promotion moves a ready version through stages up to `production`, keeping at most one production version per Model.
//
// And others:
//
// - `artifact`: Content-addressed files pushed from runs. The same bytes are kept once whatever runs refer to them.
// Once nothing refers to an Artifact anymore, the "gc loop" removes its blob from the artifact store.
//
// - `release`: Binding of a ModelVersion to a serving environment, blue/green wise.
// A Release is planned `staged` on the idle slot, and switching makes it `live` while retiring the predecessor.
//
// - `auth`: API tokens. Secrets are hashed, shown once at issue time.
//
// - `keychain`: Manages signkeys for JWT kept in the database. This is used to create download tokens for `/api/artifacts/*`.
//
// - `loop`: Manages recurring tasks. This defines constants for each loop.
// Implementation of the loop is in `cmd/loops/tasks/` directory.
//
// - `tags`: Representations of Tags for Experiments, Runs and Models.
//
