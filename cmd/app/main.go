package main

//main.go
import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cspguard/internal/config"
	"cspguard/internal/core"
	"cspguard/internal/csp"
	httpx "cspguard/internal/http"
	"cspguard/internal/storage"
	"cspguard/internal/view"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1) Конфиг и логи
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("FATAL: config: %v", err)
	}
	log.Printf("INFO: Secure=%v, Env=%s, CSP=%s", cfg.Secure, cfg.Env, cfg.CSPSource)
	if err := core.InitDailyLog(cfg.LogDir); err != nil {
		log.Printf("WARN: файловые логи недоступны, пишем в stderr: %v", err)
	}
	defer core.Close()

	// 2) Контекст для фоновых задач (ротация логов)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startLogRotation(ctx, cfg.LogDir)

	// 3) CSP-политика: встроенная, из файла или из MySQL
	policies, err := loadPolicies(ctx, cfg)
	if err != nil {
		fatal("Ошибка загрузки CSP-политики", err)
	}

	// 4) Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 5) CSP middleware: ошибка конфигурации — сервер не стартует
	cspMW, err := csp.New(csp.Options{
		Policies: policies,
		Metrics:  csp.NewMetrics(reg),
	})
	if err != nil {
		fatal("Некорректная CSP-политика", err)
	}

	// 6) Шаблоны и роутер
	tpl, err := view.New()
	if err != nil {
		fatal("Ошибка загрузки шаблонов", err)
	}
	handler := httpx.NewRouter(cfg, httpx.Deps{
		CSP:       cspMW,
		Templates: tpl,
		CSRFKey:   derive32(cfg.CSRFKey),
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	// 7) HTTP-сервер с таймаутами (OWASP A05)
	srv := core.Server(cfg, handler)

	// 8) Перехват сигналов
	sigs, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 9) Запуск сервера
	runServer(srv, cfg)

	// 10) Ожидаем сигнал завершения
	waitShutdown(sigs, srv, cfg)
}

// loadPolicies выбирает источник политики по CSP_SOURCE.
func loadPolicies(ctx context.Context, cfg core.Config) (csp.Policies, error) {
	switch cfg.CSPSource {
	case core.CSPSourceFile:
		return config.LoadPolicyFile(cfg.CSPPolicyFile)
	case core.CSPSourceMySQL:
		return loadPoliciesFromDB(ctx, cfg.MySQLDSN)
	default:
		return csp.DefaultPolicies(), nil
	}
}

// loadPoliciesFromDB — подключение, миграции, чтение; пул закрывается сразу,
// политика в рантайме не перечитывается.
func loadPoliciesFromDB(ctx context.Context, dsn string) (csp.Policies, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := storage.NewDB(ctx, dsn)
	if err != nil {
		return csp.Policies{}, err
	}
	defer storage.Close(db)

	if err := storage.NewMigrations(db).RunMigrations(ctx); err != nil {
		return csp.Policies{}, fmt.Errorf("migrations: %w", err)
	}
	return storage.LoadPolicies(ctx, db)
}

// fatal — лог и выход с ненулевым кодом. ConfigError логируется по полям.
func fatal(msg string, err error) {
	fields := map[string]interface{}{"error": err}
	var cerr *csp.ConfigError
	if errors.As(err, &cerr) {
		fields["mode"] = cerr.Mode.String()
		fields["directive"] = cerr.Directive
		fields["reason"] = cerr.Reason
	}
	core.LogError(msg, fields)
	core.Close()
	os.Exit(1)
}

// startLogRotation — ротация раз в сутки
func startLogRotation(ctx context.Context, dir string) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := core.InitDailyLog(dir); err != nil {
					log.Printf("WARN: ротация логов: %v", err)
				}
			}
		}
	}()
}

// gracefulShutdown — корректное завершение
func gracefulShutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// runServer — запуск (ListenAndServe / ListenAndServeTLS) в горутине
func runServer(srv *http.Server, cfg core.Config) {
	go func() {
		core.LogInfo("http: сервер запущен", map[string]interface{}{
			"addr": cfg.Addr,
			"env":  cfg.Env,
			"app":  cfg.AppName,
		})
		var err error
		if cfg.Secure && cfg.CertFile != "" {
			err = srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			fatal("Ошибка работы сервера", err)
		}
	}()
}

// waitShutdown — ожидание сигналов и shutdown
func waitShutdown(sigs context.Context, srv *http.Server, cfg core.Config) {
	<-sigs.Done()
	core.LogInfo("http: начат процесс завершения", nil)
	if err := gracefulShutdown(srv, cfg.ShutdownTimeout); err != nil {
		core.LogError("Ошибка завершения сервера", map[string]interface{}{"error": err})
	} else {
		core.LogInfo("http: завершение выполнено", nil)
	}
}

// derive32 — 32-байтовый ключ CSRF из секрета (OWASP A02)
func derive32(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
