package config

type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Transport TransportConfig `yaml:"transport" json:"transport"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Log       LogConfig       `yaml:"log" json:"log"`
}

type ServerConfig struct {
	Host string     `yaml:"host" json:"host"`
	Port int        `yaml:"port" json:"port"`
	Auth AuthConfig `yaml:"auth" json:"auth"`
}

// AuthConfig holds the shared controller token. Empty means every connection
// is accepted without a handshake.
type AuthConfig struct {
	Token string `yaml:"token" json:"token"`
}

type TransportConfig struct {
	Driver        string `yaml:"driver" json:"driver"`               // registered transport driver name
	CredentialDir string `yaml:"credentialDir" json:"credentialDir"` // pairing credential storage
	MediaDir      string `yaml:"mediaDir" json:"mediaDir"`           // downloaded attachment cache
}

type CacheConfig struct {
	Sweep         string `yaml:"sweep" json:"sweep"`                 // cron expression for the media sweep
	RetentionDays int    `yaml:"retentionDays" json:"retentionDays"` // attachment age limit
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"` // debug | info | warn | error
}

func DefaultConfig() *Config {
	cfg := &Config{}
	applyLoadDefaults(cfg)
	return cfg
}
