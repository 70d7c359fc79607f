package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/api"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/events"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/notify"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/recorder"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/runner"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/scheduler"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/strategy"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/config"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/crypto"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/binance"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/luno"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/mock"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("autobot core starting on port %s (db %s)", cfg.Port, cfg.DBPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("db migrations failed: %v", err)
	}

	if cfg.EncryptionKey == "" {
		log.Fatal("ENCRYPTION_KEY is required (32 bytes, base64)")
	}
	encryptor, err := crypto.NewEncryptorFromBase64(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("encryption key invalid: %v", err)
	}

	defaults, err := strategy.LoadDefaults(cfg.StrategyDefaultsPath)
	if err != nil {
		log.Printf("strategy defaults: %v (using built-ins)", err)
	}

	bus := events.NewBus()
	rec := recorder.New(database, bus)

	factory, publicGateways := gatewayFactory(cfg, encryptor)
	runnerCfg := runner.Config{
		Sleep:              cfg.RunnerSleep,
		InterStrategyDelay: cfg.InterStrategyDelay,
		AdapterTimeout:     cfg.AdapterTimeout,
		FiatRate:           cfg.FiatRate,
		MinArbSpreadPct:    cfg.MinArbSpreadPct,
		Defaults:           defaults,
		PublicGateways:     publicGateways,
	}
	run := func(runCtx context.Context, userID string) {
		runner.New(userID, database, rec, factory, runnerCfg).Run(runCtx)
	}

	sched := scheduler.New(database, bus, run, rec, cfg.ReconcileInterval)

	var notifier notify.Notifier = notify.NoOp{}
	if cfg.TelegramBotToken != "" {
		notifier = notify.NewTelegram(cfg.TelegramBotToken)
	}

	go recorder.NewJournal(database, bus).Run(ctx)
	go notify.NewDispatcher(database, bus, notifier).Run(ctx)

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	server := api.NewServer(database, bus, sched, encryptor, cfg.JWTSecret)
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Printf("api server: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received, stopping runners")
	<-schedDone
	log.Println("autobot core stopped")
}

// gatewayFactory builds a user's venue gateways from their stored
// credentials, falling back to the global environment credentials. It also
// returns the credential-free clients the arbitrage price check uses. In
// mock mode every user shares one scripted pair of gateways.
func gatewayFactory(cfg *config.Config, encryptor *crypto.Encryptor) (runner.GatewayFactory, map[common.Venue]common.Gateway) {
	if cfg.UseMockExchange {
		binanceMock, lunoMock := seededMocks(cfg.FiatRate)
		mocks := map[common.Venue]common.Gateway{
			common.VenueBinance: binanceMock,
			common.VenueLuno:    lunoMock,
		}
		return func(user *db.User) (map[common.Venue]common.Gateway, error) {
			return mockGateways(user.Exchange, binanceMock, lunoMock), nil
		}, mocks
	}

	public := map[common.Venue]common.Gateway{
		common.VenueBinance: binance.New(binance.Config{BaseURL: cfg.BinanceBaseURL}),
		common.VenueLuno:    luno.New(luno.Config{BaseURL: cfg.LunoBaseURL}),
	}

	factory := func(user *db.User) (map[common.Venue]common.Gateway, error) {
		gateways := make(map[common.Venue]common.Gateway)

		if user.Exchange == db.ExchangeBinance || user.Exchange == db.ExchangeBoth {
			key, secret, err := credentials(encryptor, user.BinanceAPIKey, user.BinanceAPISecret, cfg.BinanceAPIKey, cfg.BinanceAPISecret)
			if err != nil {
				return nil, fmt.Errorf("binance credentials: %w", err)
			}
			gateways[common.VenueBinance] = binance.New(binance.Config{
				APIKey:    key,
				APISecret: secret,
				BaseURL:   cfg.BinanceBaseURL,
			})
		}

		if user.Exchange == db.ExchangeLuno || user.Exchange == db.ExchangeBoth {
			key, secret, err := credentials(encryptor, user.LunoAPIKeyID, user.LunoAPISecret, cfg.LunoAPIKeyID, cfg.LunoAPISecret)
			if err != nil {
				return nil, fmt.Errorf("luno credentials: %w", err)
			}
			gateways[common.VenueLuno] = luno.New(luno.Config{
				KeyID:   key,
				Secret:  secret,
				BaseURL: cfg.LunoBaseURL,
			})
		}

		if len(gateways) == 0 {
			return nil, fmt.Errorf("unsupported exchange %q", user.Exchange)
		}
		return gateways, nil
	}
	return factory, public
}

// credentials decrypts the user's stored pair, falling back to the global
// environment pair when the user has none.
func credentials(encryptor *crypto.Encryptor, userKey, userSecret, envKey, envSecret string) (string, string, error) {
	if userKey == "" || userSecret == "" {
		if envKey == "" || envSecret == "" {
			return "", "", fmt.Errorf("no credentials configured")
		}
		return envKey, envSecret, nil
	}

	key, err := encryptor.Decrypt(userKey)
	if err != nil {
		return "", "", err
	}
	secret, err := encryptor.Decrypt(userSecret)
	if err != nil {
		return "", "", err
	}
	return key, secret, nil
}

func mockGateways(ex db.Exchange, binanceMock, lunoMock *mock.Gateway) map[common.Venue]common.Gateway {
	switch ex {
	case db.ExchangeBinance:
		return map[common.Venue]common.Gateway{common.VenueBinance: binanceMock}
	case db.ExchangeLuno:
		return map[common.Venue]common.Gateway{common.VenueLuno: lunoMock}
	default:
		return map[common.Venue]common.Gateway{
			common.VenueBinance: binanceMock,
			common.VenueLuno:    lunoMock,
		}
	}
}

// seededMocks scripts a plausible market so local runs exercise the full
// loop without touching a real venue.
func seededMocks(fiatRate float64) (*mock.Gateway, *mock.Gateway) {
	binanceMock := mock.New(common.VenueBinance)
	lunoMock := mock.New(common.VenueLuno)

	btc := 65000.0
	history := make([]float64, 60)
	for i := range history {
		history[i] = btc - float64(60-i)*12
	}

	binanceMock.SetPrice(strategy.BinancePair, btc)
	binanceMock.SetHistory(strategy.BinancePair, history)
	binanceMock.SetBalance("USDT", 10000)

	zarHistory := make([]float64, len(history))
	for i, h := range history {
		zarHistory[i] = h * fiatRate
	}
	lunoMock.SetPrice(strategy.LunoPair, btc*fiatRate*1.002)
	lunoMock.SetHistory(strategy.LunoPair, zarHistory)
	lunoMock.SetBalance("ZAR", 200000)

	return binanceMock, lunoMock
}
