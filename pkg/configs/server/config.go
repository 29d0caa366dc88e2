package server

// Configuration for the yardd API server and its background loops.
//
// to get `ServerConfig` instance, use `ServerConfigMarshall.TrySeal()` .
type ServerConfig struct {
	port     int32
	database string
	storage  *StorageConfig
	auth     *AuthConfig
	gate     *GateDefaultConfig
}

func (c *ServerConfig) Port() int32 {
	return c.port
}

// Connection string for database.
func (c *ServerConfig) Database() string {
	return c.database
}

// Configuration for the artifact store.
func (c *ServerConfig) Storage() *StorageConfig {
	return c.storage
}

// Configuration for api tokens. nil means auth is disabled.
func (c *ServerConfig) Auth() *AuthConfig {
	return c.auth
}

// Default gate policy for models registered without one.
// nil means no default.
func (c *ServerConfig) Gate() *GateDefaultConfig {
	return c.gate
}

// Setting for the artifact store backend.
type StorageConfig struct {
	kind            string
	maxArtifactSize int64
	local           *LocalStorageConfig
	s3              *S3StorageConfig
}

// "local" or "s3".
func (s *StorageConfig) Kind() string {
	return s.kind
}

// Upper bound of a single artifact in bytes. 0 means unlimited.
func (s *StorageConfig) MaxArtifactSize() int64 {
	return s.maxArtifactSize
}

func (s *StorageConfig) Local() *LocalStorageConfig {
	return s.local
}

func (s *StorageConfig) S3() *S3StorageConfig {
	return s.s3
}

type LocalStorageConfig struct {
	root string
}

// directory where blobs are laid out.
func (l *LocalStorageConfig) Root() string {
	return l.root
}

type S3StorageConfig struct {
	bucket          string
	prefix          string
	region          string
	endpoint        string
	accessKeyId     string
	secretAccessKey string
}

func (s *S3StorageConfig) Bucket() string {
	return s.bucket
}

// key prefix in the bucket. May be empty.
func (s *S3StorageConfig) Prefix() string {
	return s.prefix
}

func (s *S3StorageConfig) Region() string {
	return s.region
}

// non-AWS endpoint, for S3 compatibles. Empty means AWS.
func (s *S3StorageConfig) Endpoint() string {
	return s.endpoint
}

// static credentials. When empty, the SDK default chain is used.
func (s *S3StorageConfig) AccessKeyId() string {
	return s.accessKeyId
}

func (s *S3StorageConfig) SecretAccessKey() string {
	return s.secretAccessKey
}

type AuthConfig struct {
	enabled   bool
	bootstrap string
}

func (a *AuthConfig) Enabled() bool {
	return a != nil && a.enabled
}

// argon2id hash of the bootstrap secret which may issue the first token.
func (a *AuthConfig) Bootstrap() string {
	if a == nil {
		return ""
	}
	return a.bootstrap
}

type GateDefaultConfig struct {
	metric    string
	threshold *float64
}

func (g *GateDefaultConfig) Metric() string {
	if g == nil {
		return ""
	}
	return g.metric
}

func (g *GateDefaultConfig) Threshold() *float64 {
	if g == nil {
		return nil
	}
	return g.threshold
}
