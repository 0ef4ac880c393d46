package config

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverDynamoDB = "dynamodb"
	DriverSQLite   = "sqlite"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Host        string
		Port        int
		ViewsDir    string
		PublicDir   string
		ErrorStatus string
	}
	Log struct {
		Level string
	}
	Database struct {
		Driver  string
		URI     string
		Name    string
		Path    string
		Timeout time.Duration
	}
	DynamoDB struct {
		UsersTable     string
		ExercisesTable string
		UniqueTable    string
		CreateTables   bool
	}
	AWS struct {
		Region   string
		Endpoint string
		Profile  string
	}
}

// Addr is the listen address built from host and port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo:
		if strings.TrimSpace(c.Database.URI) == "" {
			return fmt.Errorf("database uri is required for the %s driver (set MONGO_URI)", DriverMongo)
		}
	case DriverDynamoDB, DriverSQLite:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch strings.ToLower(c.Server.ErrorStatus) {
	case "legacy", "strict":
	default:
		return fmt.Errorf("unknown error status policy %q", c.Server.ErrorStatus)
	}
	return nil
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// unprefixed names used by existing deployments
	_ = v.BindEnv("server.port", "TRACKER_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.uri", "TRACKER_DATABASE_URI", "MONGO_URI")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.viewsdir", "views")
	v.SetDefault("server.publicdir", "public")
	v.SetDefault("server.errorstatus", "legacy")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "")
	v.SetDefault("database.name", "exercise_tracker")
	v.SetDefault("database.path", "data/tracker.db")
	v.SetDefault("database.timeout", 10*time.Second)
	v.SetDefault("dynamodb.userstable", "tracker_users")
	v.SetDefault("dynamodb.exercisestable", "tracker_exercises")
	v.SetDefault("dynamodb.uniquetable", "tracker_unique_constraints")
	v.SetDefault("dynamodb.createtables", false)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	return cfg, nil
}

// loadDotEnv exports KEY=VALUE lines from path without overriding the real environment.
func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
