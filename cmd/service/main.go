package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.vocdoni.io/dvote/log"

	"github.com/floatpay/payments-backend/api"
	"github.com/floatpay/payments-backend/db"
	"github.com/floatpay/payments-backend/internal/ratelimit"
	"github.com/floatpay/payments-backend/stripe"
)

func main() {
	log.Init("debug", "stdout", nil)
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.StringP("secret", "s", "", "API secret")
	flag.String("mongo-url", "", "The URL of the MongoDB server")
	flag.String("mongo-db", "payments-backend", "The name of the MongoDB database")
	flag.String("redis-url", "", "Redis URL for the shared rate limiter (optional)")
	flag.Int("rate-limit", 10, "payment creation requests allowed per client per window")
	flag.Duration("rate-window", time.Minute, "rate limit window duration")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("PAYMENTS")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	secret := viper.GetString("secret")
	if secret == "" {
		log.Fatal("secret is required")
	}
	mongoURL := viper.GetString("mongo-url")
	mongoDB := viper.GetString("mongo-db")
	redisURL := viper.GetString("redis-url")
	rateLimit := viper.GetInt("rate-limit")
	rateWindow := viper.GetDuration("rate-window")
	// initialize the MongoDB database
	database, err := db.New(mongoURL, mongoDB)
	if err != nil {
		log.Fatalf("could not create the MongoDB database: %v", err)
	}
	defer database.Close()
	// initialize the Stripe service
	stripeConfig, err := stripe.NewConfig()
	if err != nil {
		log.Fatalf("could not create the Stripe configuration: %v", err)
	}
	stripeService, err := stripe.NewService(stripeConfig, database, stripe.NewMongoEventStore(database))
	if err != nil {
		log.Fatalf("could not create the Stripe service: %v", err)
	}
	// rate limiter backend, Redis when configured so multiple instances
	// share the counters
	var limiter *ratelimit.Limiter
	if redisURL != "" {
		redisOpts, err := goredis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("invalid redis URL: %v", err)
		}
		limiter = ratelimit.New(ratelimit.NewRedisStore(goredis.NewClient(redisOpts)))
		log.Infow("rate limiter using redis backend", "url", redisURL)
	} else {
		limiter = ratelimit.New(nil)
	}
	// create the local API server
	api.New(&api.Config{
		Host:       host,
		Port:       port,
		Secret:     secret,
		DB:         database,
		Stripe:     stripeService,
		Limiter:    limiter,
		RateLimit:  rateLimit,
		RateWindow: rateWindow,
	}).Start()
	// wait forever, as the server is running in a goroutine
	log.Infow("server started", "host", host, "port", port)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
