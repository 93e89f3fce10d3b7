// Package config loads typed configuration structs from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - Optional .env files are read first. Variables already present in the
//     process environment win over file values.
//   - The environment is parsed into any struct annotated with `env` tags.
//   - Load never caches. Configuration is meant to be parsed once in main and
//     passed down explicitly.
//
// # Usage
//
//	type Config struct {
//		Addr   string        `env:"HTTP_ADDR" envDefault:":8080"`
//		Secret string        `env:"JWT_SECRET,required"`
//		TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg, config.WithEnvFiles(".env")); err != nil {
//		return err
//	}
//
// Tests can bypass the process environment entirely:
//
//	err := config.Load(&cfg, config.WithEnvironment(map[string]string{
//		"JWT_SECRET": "test",
//	}))
package config
