// Package config loads typed configuration structs from the process
// environment.
//
// Values are parsed with github.com/caarlos0/env/v11 using `env` and
// `envDefault` struct tags. A `.env` file in the working directory is loaded
// once with github.com/joho/godotenv before the first parse, so local
// development works without exporting variables by hand. Additional files can
// be loaded explicitly with LoadEnv.
//
// Every configuration type is parsed at most once per process and cached by
// its type name:
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// MustLoad panics instead of returning an error and is meant for main
// packages where missing configuration must stop the process. Reset drops the
// cache and is intended for tests that change the environment between cases.
package config
