package cmd

import (
	"context"
	"log"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strconv"

	"github.com/Synternet/stablepool-indexer/cmd/flags"
	"github.com/Synternet/stablepool-indexer/internal/chain"
	indexerimpl "github.com/Synternet/stablepool-indexer/internal/indexer"
	"github.com/Synternet/stablepool-indexer/internal/subscriber"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	flagRPCURL           *string
	flagPools            *flags.Addresses
	flagStatsContract    *string
	flagNatsSubject      *string
	flagNatsQueue        *string
	flagKafkaBrokers     *string
	flagKafkaTopic       *string
	flagKafkaGroup       *string
	flagSubscribeLogs    *bool
	flagFromBlock        *int64
	flagAssetSlots       *int
	flagDecimals         *int
	flagTVLInterval      *uint64
	flagTrackYield       *bool
	flagTrackPerAsset    *bool
	flagMetricsAddr      *string
	flagTelemetrySubject *string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start indexing pool events",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := slog.Default()

		client, err := chain.Dial(ctx, *flagRPCURL)
		if err != nil {
			logger.Error("RPC unavailable", "err", err)
			return
		}
		defer client.Close()
		reader := chain.NewReader(client, logger)

		cfg := indexerimpl.DefaultConfig()
		cfg.AssetSlots = *flagAssetSlots
		cfg.Decimals = int32(*flagDecimals)
		cfg.TVLInterval = *flagTVLInterval
		cfg.Capabilities.TracksYield = *flagTrackYield
		cfg.Capabilities.TracksPerAssetBreakdown = *flagTrackPerAsset
		if *flagStatsContract != "" {
			cfg.StatsContract = common.HexToAddress(*flagStatsContract)
		}

		idx, err := indexerimpl.New(logger, database, reader, cfg)
		if err != nil {
			logger.Error("Failed creating an indexer", "err", err)
			return
		}

		opts := []subscriber.Option{
			subscriber.WithContext(ctx),
			subscriber.WithLogger(logger),
			subscriber.WithAddresses(*flagPools.Value),
			subscriber.WithTelemetryPeriod(*flagTelemetryPeriod),
			subscriber.WithMetricsAddr(*flagMetricsAddr),
			subscriber.WithTelemetry(natsConnection, *flagTelemetrySubject),
		}
		if natsConnection != nil && *flagNatsSubject != "" {
			opts = append(opts, subscriber.WithSource(subscriber.NewNatsSource(natsConnection, *flagNatsSubject, *flagNatsQueue, logger)))
		}
		if brokers := flags.SplitList(*flagKafkaBrokers); len(brokers) > 0 && *flagKafkaTopic != "" {
			opts = append(opts, subscriber.WithSource(subscriber.NewKafkaSource(subscriber.KafkaConfig{
				Brokers:       brokers,
				Topic:         *flagKafkaTopic,
				ConsumerGroup: *flagKafkaGroup,
			}, logger)))
		}
		if *flagSubscribeLogs {
			var from *big.Int
			if *flagFromBlock >= 0 {
				from = big.NewInt(*flagFromBlock)
			}
			opts = append(opts, subscriber.WithSource(subscriber.NewLogSource(client, *flagPools.Value, from, logger)))
		}

		sub, err := subscriber.New(idx, opts...)
		if err != nil {
			logger.Error("Failed creating a subscriber", "err", err)
			return
		}
		sub.AddStatusCallback(reader.GetStatus)

		subCtx := sub.Start()
		defer sub.Close()

		select {
		case <-ctx.Done():
			log.Println("Shutdown")
		case <-subCtx.Done():
			log.Println("Subscriber stopped with cause: ", context.Cause(subCtx).Error())
			stop()
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	const (
		RPC_URL           = "RPC_URL"
		POOL_ADDRESSES    = "POOL_ADDRESSES"
		STATS_CONTRACT    = "STATS_CONTRACT"
		NATS_SUBJECT      = "NATS_SUBJECT"
		NATS_QUEUE        = "NATS_QUEUE"
		KAFKA_BROKERS     = "KAFKA_BROKERS"
		KAFKA_TOPIC       = "KAFKA_TOPIC"
		KAFKA_GROUP       = "KAFKA_GROUP"
		FROM_BLOCK        = "FROM_BLOCK"
		ASSET_SLOTS       = "ASSET_SLOTS"
		DECIMALS          = "DECIMALS"
		TVL_INTERVAL      = "TVL_INTERVAL"
		METRICS_ADDR      = "METRICS_ADDR"
		TELEMETRY_SUBJECT = "TELEMETRY_SUBJECT"
	)

	setDefault(RPC_URL, "ws://localhost:8546")
	setDefault(NATS_SUBJECT, "stablepool.events")
	setDefault(KAFKA_GROUP, "stablepool-indexer")
	setDefault(FROM_BLOCK, "-1")
	setDefault(ASSET_SLOTS, strconv.Itoa(indexerimpl.DefaultAssetSlots))
	setDefault(DECIMALS, strconv.Itoa(indexerimpl.DefaultDecimals))
	setDefault(TVL_INTERVAL, strconv.Itoa(indexerimpl.DefaultTVLInterval))

	f := startCmd.Flags()
	flagRPCURL = f.String("rpc-url", os.Getenv(RPC_URL), "Ethereum JSON-RPC endpoint (ws:// required for log subscriptions)")
	flagPools = f.VarPF(flags.NewAddresses(os.Getenv(POOL_ADDRESSES)), "pools", "", "Pool contract addresses to index (all events are indexed when empty)").Value.(*flags.Addresses)
	flagStatsContract = f.String("stats-contract", os.Getenv(STATS_CONTRACT), "Contract exposing getTokenStats (defaults to the pool emitting the event)")
	flagNatsSubject = f.String("nats-subject", os.Getenv(NATS_SUBJECT), "NATS subject carrying JSON encoded pool events")
	flagNatsQueue = f.String("nats-queue", os.Getenv(NATS_QUEUE), "NATS queue group")
	flagKafkaBrokers = f.String("kafka-brokers", os.Getenv(KAFKA_BROKERS), "Kafka brokers (separated by comma)")
	flagKafkaTopic = f.String("kafka-topic", os.Getenv(KAFKA_TOPIC), "Kafka topic carrying JSON encoded pool events")
	flagKafkaGroup = f.String("kafka-group", os.Getenv(KAFKA_GROUP), "Kafka consumer group")
	flagMetricsAddr = f.String("metrics-addr", os.Getenv(METRICS_ADDR), "Address to serve Prometheus metrics on, e.g. :9090")
	flagTelemetrySubject = f.String("telemetry-subject", os.Getenv(TELEMETRY_SUBJECT), "NATS subject to publish status reports to")

	_, subscribeLogs := os.LookupEnv("SUBSCRIBE_LOGS")
	flagSubscribeLogs = f.Bool("subscribe-logs", subscribeLogs, "Stream pool logs directly from the RPC node")
	_, noYield := os.LookupEnv("NO_YIELD")
	flagTrackYield = f.Bool("track-yield", !noYield, "Fold yield token value into the total balance")
	_, noPerAsset := os.LookupEnv("NO_PER_ASSET")
	flagTrackPerAsset = f.Bool("track-per-asset", !noPerAsset, "Keep cumulative volume per asset slot")

	fromBlock, err := strconv.ParseInt(os.Getenv(FROM_BLOCK), 10, 64)
	if err != nil {
		fromBlock = -1
		log.Println("Bad from block format: ", err)
	}
	flagFromBlock = f.Int64("from-block", fromBlock, "Replay logs starting at this block before streaming (-1 disables replay)")

	slots, err := strconv.Atoi(os.Getenv(ASSET_SLOTS))
	if err != nil {
		slots = indexerimpl.DefaultAssetSlots
		log.Println("Bad asset slots format: ", err)
	}
	flagAssetSlots = f.Int("asset-slots", slots, "Number of asset slots in the pool")

	decimals, err := strconv.Atoi(os.Getenv(DECIMALS))
	if err != nil {
		decimals = indexerimpl.DefaultDecimals
		log.Println("Bad decimals format: ", err)
	}
	flagDecimals = f.Int("decimals", decimals, "Normalization decimals")

	interval, err := strconv.ParseUint(os.Getenv(TVL_INTERVAL), 10, 64)
	if err != nil {
		interval = indexerimpl.DefaultTVLInterval
		log.Println("Bad TVL interval format: ", err)
	}
	flagTVLInterval = f.Uint64("tvl-interval", interval, "Minimum number of blocks between TVL samples")
}
