package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Synternet/stablepool-indexer/internal/repository"
	"github.com/Synternet/stablepool-indexer/internal/repository/pg"
	"github.com/Synternet/stablepool-indexer/internal/repository/redis"
	"github.com/Synternet/stablepool-indexer/internal/repository/sqlite"
	repotypes "github.com/Synternet/stablepool-indexer/pkg/repository"
)

// Values from .env must be visible before flag defaults are read in init.
var _ = godotenv.Load()

var (
	flagVerbose         *bool
	flagTelemetryPeriod *time.Duration
	flagNatsUrls        *string
	flagUserCreds       *string
	flagNkey            *string
	flagNatsAccNkey     *string
	flagJWT             *string
	flagTLSClientCert   *string
	flagTLSKey          *string
	flagCACert          *string

	flagDbHost     *string
	flagDbPort     *uint
	flagDbUser     *string
	flagDbPassword *string
	flagDbName     *string
	flagDbPrefix   *string

	natsConnection *nats.Conn
	database       repotypes.Repository
)

func setErrorHandlers(conn *nats.Conn) {
	if conn == nil {
		return
	}

	conn.SetErrorHandler(func(c *nats.Conn, s *nats.Subscription, err error) {
		slog.Error("NATS error", "err", err)
	})
	conn.SetDisconnectErrHandler(func(c *nats.Conn, err error) {
		slog.Error("NATS disconnected", "err", err)
	})
}

// makeNats connects to NATS if any URL is given. Credentials file takes precedence over JWT and NKey.
func makeNats(name, urls, creds, nkey, jwt, caCert, cert, key string) (*nats.Conn, error) {
	if urls == "" {
		return nil, nil
	}

	opts := []nats.Option{nats.Name(name), nats.MaxReconnects(-1)}
	switch {
	case creds != "":
		opts = append(opts, nats.UserCredentials(creds))
	case jwt != "" && nkey != "":
		opts = append(opts, nats.UserJWTAndSeed(jwt, nkey))
	}
	if caCert != "" {
		opts = append(opts, nats.RootCAs(caCert))
	}
	if cert != "" && key != "" {
		opts = append(opts, nats.ClientCert(cert, key))
	}

	return nats.Connect(urls, opts...)
}

func openDatabase() (repotypes.Repository, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch {
	case *flagDbName == "redis":
		return redis.New(fmt.Sprintf("%s:%d", *flagDbHost, *flagDbPort), *flagDbPassword, 0, *flagDbPrefix, slog.Default())
	case *flagDbName == "sqlite":
		db, err = sqlite.New(*flagDbHost)
	case pg.IsURL(*flagDbHost):
		db, err = pg.NewFromURL(*flagDbHost)
	default:
		db, err = pg.New(*flagDbHost, *flagDbPort, *flagDbUser, *flagDbPassword, *flagDbName)
	}
	if err != nil {
		return nil, err
	}
	return repository.New(db, slog.Default())
}

var rootCmd = &cobra.Command{
	Use:   "stablepool-indexer",
	Short: "Indexes balances, trade volume and TVL of a stablecoin pool",
	Long:  ``,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if *flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		// Sacrifice some security for the sake of user experience by allowing to
		// supply NATS account NKey instead of passing created user NKey and user JWS.
		if *flagNatsAccNkey != "" {
			user, err := newNatsUser(*flagNatsAccNkey)
			if err != nil {
				panic(fmt.Errorf("failed to generate user JWT: %w", err))
			}
			*flagNkey = user.Seed
			*flagJWT = user.JWT
		}

		conn, err := makeNats("Stablepool Indexer", *flagNatsUrls, *flagUserCreds, *flagNkey, *flagJWT, *flagCACert, *flagTLSClientCert, *flagTLSKey)
		if err != nil {
			panic(fmt.Errorf("failed to connect to NATS %s: %w", *flagNatsUrls, err))
		}
		natsConnection = conn
		setErrorHandlers(conn)

		repo, err := openDatabase()
		if err != nil {
			panic(err)
		}
		database = repo
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if natsConnection != nil {
			natsConnection.Close()
		}
		if database != nil {
			database.Close()
		}
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	const (
		DB_HOST     = "DB_HOST"
		DB_PORT     = "DB_PORT"
		DB_USER     = "DB_USER"
		DB_PASSWORD = "DB_PASSW"
		DB_NAME     = "DB_NAME"
		DB_PREFIX   = "DB_PREFIX"
	)
	setDefault(DB_HOST, "postgres")
	setDefault(DB_PORT, "5432")
	setDefault(DB_USER, "stablepool_user")
	setDefault(DB_NAME, "stablepool")
	setDefault(DB_PREFIX, "stablepool")

	flagNatsUrls = rootCmd.PersistentFlags().StringP("nats-url", "n", os.Getenv("NATS_URL"), "NATS server URLs (separated by comma)")
	flagNatsAccNkey = rootCmd.PersistentFlags().StringP("nats-acc-nkey", "", os.Getenv("NATS_ACC_NKEY"), "NATS account NKey (seed)")
	flagUserCreds = rootCmd.PersistentFlags().StringP("nats-creds", "c", os.Getenv("NATS_CREDS"), "NATS User Credentials File (combined JWT and NKey file) ")
	flagJWT = rootCmd.PersistentFlags().StringP("nats-jwt", "w", os.Getenv("NATS_JWT"), "NATS JWT")
	flagNkey = rootCmd.PersistentFlags().StringP("nats-nkey", "k", os.Getenv("NATS_NKEY"), "NATS NKey")

	flagTLSKey = rootCmd.PersistentFlags().StringP("client-key", "", os.Getenv("CLIENT_KEY"), "NATS Private key file for client certificate")
	flagTLSClientCert = rootCmd.PersistentFlags().StringP("client-cert", "", os.Getenv("CLIENT_CERT"), "NATS TLS client certificate file")
	flagCACert = rootCmd.PersistentFlags().StringP("ca-cert", "", os.Getenv("CA_CERT"), "NATS CA certificate file")

	flagDbHost = rootCmd.PersistentFlags().StringP("db-host", "", os.Getenv(DB_HOST), "Database Host (filepath in case of `sqlite` `db-name`, postgres:// URL accepted)")

	envPort := os.Getenv(DB_PORT)
	port, err := strconv.ParseUint(envPort, 10, 64)
	if err != nil {
		port = 5432
		slog.Warn("Bad database port format, switching to default", "error", err, "port", port)
	}

	flagDbPort = rootCmd.PersistentFlags().UintP("db-port", "", uint(port), "Database Port")
	flagDbUser = rootCmd.PersistentFlags().StringP("db-user", "", os.Getenv(DB_USER), "Database User")
	flagDbName = rootCmd.PersistentFlags().StringP("db-name", "", os.Getenv(DB_NAME), "Database Name (specify `sqlite` for SQLite database, `redis` for Redis)")
	flagDbPassword = rootCmd.PersistentFlags().StringP("db-passw", "", os.Getenv(DB_PASSWORD), "Database Password")
	flagDbPrefix = rootCmd.PersistentFlags().StringP("db-prefix", "", os.Getenv(DB_PREFIX), "Key prefix when using Redis")

	_, verbosePresent := os.LookupEnv("VERBOSE")

	flagVerbose = rootCmd.PersistentFlags().BoolP("verbose", "v", verbosePresent, "Verbose output")

	envTelemetryPeriod := os.Getenv("TELEMETRY_PERIOD")
	var telemetryPeriod time.Duration
	if envTelemetryPeriod != "" {
		var err error
		telemetryPeriod, err = time.ParseDuration(envTelemetryPeriod)
		if err != nil {
			telemetryPeriod = time.Second * 3
			slog.Warn("Invalid format for TELEMETRY_PERIOD environment variable.", "error", err, "default", telemetryPeriod)
		}
	} else {
		telemetryPeriod = time.Second * 3
	}

	flagTelemetryPeriod = rootCmd.PersistentFlags().DurationP("telemetry-period", "T", telemetryPeriod, "Telemetry report period")
}
