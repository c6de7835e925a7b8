package cli

import (
	"io/ioutil"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type (
	mongodbSection struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	}

	migrationsSection struct {
		LocalFolder      string `yaml:"local_folder"`
		LedgerCollection string `yaml:"ledger_collection"`
		AdvisoryLock     bool   `yaml:"advisory_lock"`
	}

	configFile struct {
		Version    string            `yaml:"version"`
		MongoDB    mongodbSection    `yaml:"mongodb"`
		Migrations migrationsSection `yaml:"migrations"`
	}
)

// ConfigFromYaml loads the runner settings from a yaml file. A .env file in
// the working directory is loaded first, and any value written as
// %%SOME_VAR%% resolves to that environment variable.
func ConfigFromYaml(path string) (Config, error) {
	var cfg Config

	// missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "could not open configuration file [%s]", path)
	}

	defer func() {
		if errClose := f.Close(); errClose != nil {
			panic(errClose)
		}
	}()

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read configuration file [%s]", path)
	}

	var cfgFile configFile
	if err := yaml.Unmarshal(b, &cfgFile); err != nil {
		return cfg, errors.Wrapf(err, "could not parse configuration file [%s]", path)
	}

	cfg.MongoURI = expandEnv(cfgFile.MongoDB.URI)
	cfg.DatabaseName = expandEnv(cfgFile.MongoDB.Database)
	cfg.MigrationsFolder = expandEnv(cfgFile.Migrations.LocalFolder)
	cfg.LedgerCollection = expandEnv(cfgFile.Migrations.LedgerCollection)
	cfg.AdvisoryLock = cfgFile.Migrations.AdvisoryLock

	if cfg.MongoURI == "" {
		return cfg, errors.New("mongodb uri was not defined")
	}

	if cfg.DatabaseName == "" {
		return cfg, errors.New("mongodb database was not defined")
	}

	return cfg, nil
}

func expandEnv(v string) string {
	if strings.HasPrefix(v, "%%") && strings.HasSuffix(v, "%%") {
		return os.Getenv(strings.ReplaceAll(v, "%%", ""))
	}

	return v
}

const configFileStub = `version: "1"
mongodb:
  uri: "%%MONGODB_URI%%"
  database: "%%MONGODB_DATABASE%%"
migrations:
  local_folder: ./migrations
  ledger_collection: migrations
  advisory_lock: false
`
