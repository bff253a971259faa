package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	mainLogger  zerolog.Logger
	errorLogger zerolog.Logger
	mainFile    *os.File
	errorFile   *os.File
	mu          sync.Mutex
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
	cleanupOnce  sync.Once

	// До InitDailyLog (и после Close) пишем в stderr
	consoleLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
)

// maxLogAgeDays — сколько дней хранить лог-файлы
const maxLogAgeDays = 7

// InitDailyLog открывает файлы <dir>/DD-MM-YYYY.log и <dir>/errors-DD-MM-YYYY.log.
// Повторный вызов (ротация) закрывает предыдущие файлы.
func InitDailyLog(dir string) error {
	// Создаём директорию logs
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("logger: create %s: %w", dir, err)
	}

	// Формируем имена файлов на основе текущей даты
	dateStr := time.Now().Format("02-01-2006")
	mainPath := filepath.Join(dir, dateStr+".log")
	errorPath := filepath.Join(dir, "errors-"+dateStr+".log")

	mainFile, err := os.OpenFile(mainPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("logger: open %s: %w", mainPath, err)
	}
	errorFile, err := os.OpenFile(errorPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		_ = mainFile.Close()
		return fmt.Errorf("logger: open %s: %w", errorPath, err)
	}

	l := &Logger{
		mainLogger: zerolog.New(mainFile).With().Timestamp().Logger(),
		// ошибки дублируются в основной лог, чтобы он был полным
		errorLogger: zerolog.New(zerolog.MultiLevelWriter(errorFile, mainFile)).With().Timestamp().Logger(),
		mainFile:    mainFile,
		errorFile:   errorFile,
	}

	globalMu.Lock()
	prev := globalLogger
	globalLogger = l
	globalMu.Unlock()
	if prev != nil {
		prev.close()
	}

	// Запускаем очистку старых логов один раз
	cleanupOnce.Do(func() { go cleanupOldLogs(dir, maxLogAgeDays) })
	return nil
}

func current() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalLogger
}

func logEvent(ev *zerolog.Event, msg string, fields map[string]interface{}) {
	for k, v := range fields {
		if err, ok := v.(error); ok {
			ev = ev.AnErr(k, err)
			continue
		}
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func LogInfo(msg string, fields map[string]interface{}) {
	l := current()
	if l == nil {
		logEvent(consoleLogger.Info(), msg, fields)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	logEvent(l.mainLogger.Info(), msg, fields)
}

func LogWarn(msg string, fields map[string]interface{}) {
	l := current()
	if l == nil {
		logEvent(consoleLogger.Warn(), msg, fields)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	logEvent(l.mainLogger.Warn(), msg, fields)
}

func LogError(msg string, fields map[string]interface{}) {
	l := current()
	if l == nil {
		logEvent(consoleLogger.Error(), msg, fields)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	logEvent(l.errorLogger.Error(), msg, fields)
}

func cleanupOldLogs(dir string, days int) {
	files, err := os.ReadDir(dir)
	if err != nil {
		LogError("Не удалось прочитать каталог логов", map[string]interface{}{"dir": dir, "error": err})
		return
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, file.Name())
			if err := os.Remove(path); err != nil {
				LogError("Не удалось удалить старый лог", map[string]interface{}{"path": path, "error": err})
			}
		}
	}
}

func (l *Logger) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.mainFile.Close(); err != nil {
		consoleLogger.Error().Msgf("Закрытие mainFile: %v", err)
	}
	if err := l.errorFile.Close(); err != nil {
		consoleLogger.Error().Msgf("Закрытие errorFile: %v", err)
	}
}

// Close закрывает файлы логов; дальнейшие записи идут в stderr.
func Close() {
	globalMu.Lock()
	l := globalLogger
	globalLogger = nil
	globalMu.Unlock()
	if l != nil {
		l.close()
	}
}
