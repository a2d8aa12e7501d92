package config

type Config interface {
	EnvConfig
	AuthentikConfig
	SessionConfig
	RoleConfig
}

type mainConfig struct {
	EnvVars
	Authentik
	Session
	Roles
}

func New() Config {
	return mainConfig{}
}
