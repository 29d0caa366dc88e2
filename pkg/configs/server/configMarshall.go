package server

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/resource"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/server.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

// Configuration of the yardd server.
//
// This type is marshalling value and mutable.
// Consider to use immutable version, `ServerConfig`.
// You can get `ServerConfig` instance with `ServerConfigMarshall.TrySeal()`
type ServerConfigMarshall struct {
	Port     int32                      `yaml:"port"`
	Database string                     `yaml:"database"`
	Storage  *StorageConfigMarshall     `yaml:"storage"`
	Auth     *AuthConfigMarshall        `yaml:"auth,omitempty"`
	Gate     *GateDefaultConfigMarshall `yaml:"gate,omitempty"`
}

var _ Marshalled[*ServerConfig] = &ServerConfigMarshall{}

// verify configuration value and create "readonly" version of this.
//
// IT WILL PANIC if any misconfiguration is found.
func (sm *ServerConfigMarshall) TrySeal() *ServerConfig {
	return sm.trySeal("(root)")
}

func (sm *ServerConfigMarshall) trySeal(path string) *ServerConfig {
	c := &ServerConfig{
		port:     required(sm.Port, path+".port"),
		database: required(sm.Database, path+".database"),
		storage:  nonnil(sm.Storage, path+".storage").trySeal(path + ".storage"),
	}
	if sm.Auth != nil {
		c.auth = sm.Auth.trySeal(path + ".auth")
	}
	if sm.Gate != nil {
		c.gate = sm.Gate.trySeal(path + ".gate")
	}
	return c
}

type StorageConfigMarshall struct {
	Kind string `yaml:"kind"`

	// Quantity expression, like "500Mi" or "10Gi". Empty means unlimited.
	MaxArtifactSize string `yaml:"maxArtifactSize,omitempty"`

	Local *LocalStorageConfigMarshall `yaml:"local,omitempty"`
	S3    *S3StorageConfigMarshall    `yaml:"s3,omitempty"`
}

func (sm *StorageConfigMarshall) trySeal(path string) *StorageConfig {
	maxArtifactSize := int64(0)
	if sm.MaxArtifactSize != "" {
		q, err := resource.ParseQuantity(sm.MaxArtifactSize)
		if err != nil {
			panic(fmt.Errorf(
				"%s.maxArtifactSize is not a quantity: %s: %w",
				path, sm.MaxArtifactSize, err,
			))
		}
		maxArtifactSize = q.Value()
	}

	switch required(sm.Kind, path+".kind") {
	case "local":
		return &StorageConfig{
			kind:            "local",
			maxArtifactSize: maxArtifactSize,
			local:           nonnil(sm.Local, path+".local").trySeal(path + ".local"),
		}
	case "s3":
		return &StorageConfig{
			kind:            "s3",
			maxArtifactSize: maxArtifactSize,
			s3:              nonnil(sm.S3, path+".s3").trySeal(path + ".s3"),
		}
	default:
		panic(fmt.Errorf("%s.kind should be local or s3, not %s", path, sm.Kind))
	}
}

type LocalStorageConfigMarshall struct {
	Root string `yaml:"root"`
}

func (lm *LocalStorageConfigMarshall) trySeal(path string) *LocalStorageConfig {
	return &LocalStorageConfig{
		root: required(lm.Root, path+".root"),
	}
}

type S3StorageConfigMarshall struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyId     string `yaml:"accessKeyId,omitempty"`
	SecretAccessKey string `yaml:"secretAccessKey,omitempty"`
}

func (sm *S3StorageConfigMarshall) trySeal(path string) *S3StorageConfig {
	return &S3StorageConfig{
		bucket:          required(sm.Bucket, path+".bucket"),
		prefix:          sm.Prefix,
		region:          required(sm.Region, path+".region"),
		endpoint:        sm.Endpoint,
		accessKeyId:     sm.AccessKeyId,
		secretAccessKey: sm.SecretAccessKey,
	}
}

type AuthConfigMarshall struct {
	Enabled   *bool  `yaml:"enabled,omitempty"`
	Bootstrap string `yaml:"bootstrap"`
}

func (am *AuthConfigMarshall) trySeal(path string) *AuthConfig {
	enabled := true
	if am.Enabled != nil {
		enabled = *am.Enabled
	}
	return &AuthConfig{
		enabled:   enabled,
		bootstrap: required(am.Bootstrap, path+".bootstrap"),
	}
}

type GateDefaultConfigMarshall struct {
	Metric    string   `yaml:"metric"`
	Threshold *float64 `yaml:"threshold,omitempty"`
}

func (gm *GateDefaultConfigMarshall) trySeal(path string) *GateDefaultConfig {
	return &GateDefaultConfig{
		metric:    required(gm.Metric, path+".metric"),
		threshold: gm.Threshold,
	}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
