// Command webhookd is the ambient HTTP entrypoint for the command execution
// engine: it receives a raw webhook message, hands it to internal/manager,
// and exposes /healthz and /metrics the way the teacher's cmd/server wires
// up its HTTP router and graceful shutdown.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inetpeople/instabot-trader/internal/config"
	"github.com/inetpeople/instabot-trader/internal/connector/binance"
	"github.com/inetpeople/instabot-trader/internal/connector/refrest"
	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
	"github.com/inetpeople/instabot-trader/internal/manager"
	"github.com/inetpeople/instabot-trader/internal/metrics"
	"github.com/inetpeople/instabot-trader/internal/notify"
	"github.com/inetpeople/instabot-trader/internal/notify/telegram"
	"github.com/inetpeople/instabot-trader/pkg/utils"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the daemon config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	log := utils.InitGlobalLogger(utils.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	defer log.Sync()

	metrics.Register(prometheus.DefaultRegisterer)

	notifier := buildNotifier(cfg)
	creds := toManagerCredentials(cfg.Credentials)
	mgr := manager.New(connectFor(cfg), notifier, cfg.Scheduler.MinPollingDelay, cfg.Scheduler.MaxPollingDelay, creds)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/webhook", handleWebhook(mgr)).Methods(http.MethodPost)

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting webhookd", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", utils.Err(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", utils.Err(err))
	}
	log.Info("exited")
}

type webhookRequest struct {
	Message string `json:"message"`
}

func handleWebhook(mgr *manager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req webhookRequest
		if err := jsonAPI.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if req.Message == "" {
			http.Error(w, "message is required", http.StatusBadRequest)
			return
		}

		// executeMessage runs the full command sequence (spec.md §4.5); the
		// webhook contract is fire-and-forget, so respond immediately and
		// let the manager drive background tasks on its own.
		go mgr.ExecuteMessage(context.Background(), req.Message)

		w.WriteHeader(http.StatusAccepted)
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.Telegram.Enabled {
		return notify.Noop{}
	}
	sink, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		utils.L().Warn("telegram notifier disabled", utils.Err(err))
		return notify.Noop{}
	}
	return sink
}

func toManagerCredentials(in []config.CredentialsConfig) []manager.Credentials {
	out := make([]manager.Credentials, 0, len(in))
	for _, c := range in {
		out = append(out, manager.Credentials{
			Name:       c.Name,
			Exchange:   c.Exchange,
			Key:        c.Key,
			Secret:     c.Secret,
			Passphrase: c.Passphrase,
			Endpoint:   c.Endpoint,
		})
	}
	return out
}

// connectFor dispatches credentials to a concrete connector by exchange
// name: "binance" uses the go-binance/v2 reference connector, everything
// else falls back to the generic REST reference connector against
// cred.Endpoint.
func connectFor(cfg *config.Config) manager.Connect {
	return func(ctx context.Context, cred manager.Credentials) (exchangeapi.Port, error) {
		if cred.Exchange == "binance" {
			return binance.New(binance.Credentials{Key: cred.Key, Secret: cred.Secret}), nil
		}
		return refrest.New(cred.Exchange, refrest.Credentials{
			Key:        cred.Key,
			Secret:     cred.Secret,
			Passphrase: cred.Passphrase,
			Endpoint:   cred.Endpoint,
		}, 10, 5), nil
	}
}
