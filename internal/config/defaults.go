package config

const (
	defaultConfigPath      = "~/.config/albumtracker/config.toml"
	defaultDataDir         = "~/.local/share/albumtracker"
	defaultLogDir          = "~/.local/share/albumtracker/logs"
	defaultAPIBind         = "127.0.0.1:7489"
	defaultRegistryAddress = "albumtracker"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultRequestTimeout  = 10

	// PolicyExact rejects payments whose amount differs from the price.
	PolicyExact = "exact"
	// PolicyAny accepts any positive payment amount.
	PolicyAny = "any"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Catalog: Catalog{
			RegistryAddress: defaultRegistryAddress,
			PaymentPolicy:   PolicyExact,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
			Sale:           true,
			Delivery:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
