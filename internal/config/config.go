// Package config assembles the service options from defaults, an optional
// JSON config file, command-line flags and environment variables, in that
// order of precedence. A .env file in the working directory is loaded into
// the environment first.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port is the HTTP listen address (ip:port).
	Port string `json:"server_address" mapstructure:"server_address"`

	// ResultHostname is the public base URL short links are built on.
	ResultHostname string `json:"base_url" mapstructure:"base_url"`

	// DatabaseDSN selects the SQL backend; empty means in-memory storage.
	DatabaseDSN string `json:"database_dsn" mapstructure:"database_dsn"`

	EnablePprof bool `json:"enable_pprof" mapstructure:"enable_pprof"`
	EnableHTTPS bool `json:"enable_https" mapstructure:"enable_https"`

	// Config is the path of the JSON config file.
	Config string `json:"-" mapstructure:"-"`

	// TrustedSubnet is the CIDR allowed to reach the admin console.
	TrustedSubnet string `json:"trusted_subnet" mapstructure:"trusted_subnet"`

	// GRPCPort enables the gRPC admin console when positive.
	GRPCPort int `json:"grpc_port" mapstructure:"grpc_port"`

	// AdminSecret signs admin tokens; the admin console is disabled without it.
	AdminSecret string `json:"admin_secret" mapstructure:"admin_secret"`

	// CodeLength is the length of generated short codes.
	CodeLength int `json:"code_length" mapstructure:"code_length"`

	// SiteURL is the upstream site that receives non short link requests.
	SiteURL string `json:"site_url" mapstructure:"site_url"`

	LogLevel string `json:"log_level" mapstructure:"log_level"`
}

// Default returns the options used when nothing else is configured.
func Default() Options {
	return Options{
		Port:           "localhost:8080",
		ResultHostname: "http://localhost:8080",
		CodeLength:     6,
		LogLevel:       "info",
	}
}

// DotEnvFile is loaded into the environment before options are resolved.
var DotEnvFile = ".env"

// Parse resolves the options for the given command-line arguments.
func Parse(args []string) (*Options, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	options := Default()

	var fromFlags Options
	flags := NewFlagSet(&fromFlags)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	options.Config = fromFlags.Config
	if v := os.Getenv("CONFIG"); v != "" {
		options.Config = v
	}

	if options.Config != "" {
		if err := readFile(options.Config, &options); err != nil {
			return nil, err
		}
	}

	flags.Visit(func(f *flag.Flag) {
		applyFlag(&options, &fromFlags, f.Name)
	})

	if err := applyEnv(&options); err != nil {
		return nil, err
	}

	return &options, nil
}

// NewFlagSet declares the command-line flags, binding them to dst.
func NewFlagSet(dst *Options) *flag.FlagSet {
	def := Default()

	set := flag.NewFlagSet("shortlinks", flag.ContinueOnError)
	set.StringVar(&dst.Port, "a", def.Port, "run on ip:port server")
	set.StringVar(&dst.ResultHostname, "b", def.ResultHostname, "result base url")
	set.StringVar(&dst.DatabaseDSN, "d", "", "database dsn: postgres://, file:*.db, libsql://")
	set.BoolVar(&dst.EnablePprof, "p", false, "enable pprof")
	set.BoolVar(&dst.EnableHTTPS, "s", false, "enable https")
	set.StringVar(&dst.Config, "c", "", "path to json config file")
	set.StringVar(&dst.TrustedSubnet, "t", "", "trusted subnet (CIDR) for the admin console")
	set.IntVar(&dst.GRPCPort, "g", 0, "grpc admin console port, 0 disables it")
	set.StringVar(&dst.AdminSecret, "k", "", "admin token signing secret")
	set.IntVar(&dst.CodeLength, "l", def.CodeLength, "generated short code length")
	set.StringVar(&dst.SiteURL, "u", "", "upstream site for requests that are not short links")
	set.StringVar(&dst.LogLevel, "v", def.LogLevel, "log level")
	return set
}

func readFile(path string, dst *Options) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(dst); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func applyFlag(dst, src *Options, name string) {
	switch name {
	case "a":
		dst.Port = src.Port
	case "b":
		dst.ResultHostname = src.ResultHostname
	case "d":
		dst.DatabaseDSN = src.DatabaseDSN
	case "p":
		dst.EnablePprof = src.EnablePprof
	case "s":
		dst.EnableHTTPS = src.EnableHTTPS
	case "t":
		dst.TrustedSubnet = src.TrustedSubnet
	case "g":
		dst.GRPCPort = src.GRPCPort
	case "k":
		dst.AdminSecret = src.AdminSecret
	case "l":
		dst.CodeLength = src.CodeLength
	case "u":
		dst.SiteURL = src.SiteURL
	case "v":
		dst.LogLevel = src.LogLevel
	}
}

func applyEnv(dst *Options) error {
	strs := map[string]*string{
		"SERVER_ADDRESS": &dst.Port,
		"BASE_URL":       &dst.ResultHostname,
		"DATABASE_DSN":   &dst.DatabaseDSN,
		"TRUSTED_SUBNET": &dst.TrustedSubnet,
		"ADMIN_SECRET":   &dst.AdminSecret,
		"SITE_URL":       &dst.SiteURL,
		"LOG_LEVEL":      &dst.LogLevel,
	}
	for key, field := range strs {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}

	bools := map[string]*bool{
		"ENABLE_PPROF": &dst.EnablePprof,
		"ENABLE_HTTPS": &dst.EnableHTTPS,
	}
	for key, field := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*field = b
		}
	}

	ints := map[string]*int{
		"GRPC_PORT":   &dst.GRPCPort,
		"CODE_LENGTH": &dst.CodeLength,
	}
	for key, field := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*field = n
		}
	}

	return nil
}
