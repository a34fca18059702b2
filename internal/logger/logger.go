package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rivo/tview"
)

type Types int

const (
	Info Types = iota
	Error
	Warn
	Fatal
)

type Message struct {
	Timestamp time.Time
	Tag       string
	Message   string
	LogTypes  Types
}

// manager owns the sinks shared by every tagged Logger.
type manager struct {
	view    *tview.TextView
	dev     bool
	logFile *os.File
	logChan chan Message
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

type Logger struct {
	tag string
	m   *manager
}

var (
	logManager *manager
	once       sync.Once
)

// InitLogger sets up the shared sinks. Only the first call has any effect.
func InitLogger(dev bool, logPath string, view *tview.TextView) error {
	var err error
	once.Do(func() {
		var file *os.File
		if logPath != "" {
			timestamp := time.Now().Format("20060102_150405")
			fileName := fmt.Sprintf("arena_log_%s.log", timestamp)
			filePath := filepath.Join(logPath, fileName)

			file, err = os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				err = fmt.Errorf("failed to open log file: %w", err)
				return
			}
		}
		logManager = newManager(dev, file, view)
	})
	return err
}

func newManager(dev bool, file *os.File, view *tview.TextView) *manager {
	m := &manager{
		view:    view,
		dev:     dev,
		logFile: file,
		logChan: make(chan Message, 100),
		done:    make(chan struct{}),
	}
	go m.processLogs()
	return m
}

// NewLogger returns a logger tagged with the component name. Loggers created
// before InitLogger discard everything.
func NewLogger(tag string) *Logger {
	return &Logger{tag: tag, m: logManager}
}

func (m *manager) processLogs() {
	defer close(m.done)
	for msg := range m.logChan {
		timestamp := msg.Timestamp.Format("2006-01-02 15:04:05")
		logMessage := fmt.Sprintf("%s [%s] %s: %s\n", timestamp, msg.Tag, msg.LogTypes, msg.Message)
		if m.logFile != nil {
			m.logFile.WriteString(logMessage)
		}
	}
}

func (m *manager) enqueue(msg Message) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed || m.logFile == nil {
		return
	}
	m.logChan <- msg
}

func (m *manager) close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.logChan)
	m.mu.Unlock()

	<-m.done
	if m.logFile != nil {
		m.logFile.Close()
	}
}

func (l *Logger) log(logTypes Types, v ...interface{}) {
	if l.m == nil {
		return
	}
	message := strings.TrimSuffix(fmt.Sprintln(v...), "\n")

	if l.m.dev {
		if l.m.view != nil {
			var format string
			switch logTypes {
			case Info:
				format = "[green]DEBUG (%s): %s[-]\n"
			case Error, Fatal:
				format = "[red]DEBUG (%s): %s[-]\n"
			case Warn:
				format = "[yellow]DEBUG (%s): %s[-]\n"
			}
			fmt.Fprintf(l.m.view, format, l.tag, tview.Escape(message))
		} else {
			log.Printf("[%s] %s: %s", l.tag, logTypes, message)
		}
	}

	l.m.enqueue(Message{
		Timestamp: time.Now(),
		Tag:       l.tag,
		Message:   message,
		LogTypes:  logTypes,
	})
}

func (l *Logger) Info(v ...interface{}) {
	l.log(Info, v...)
}

func (l *Logger) Error(v ...interface{}) {
	l.log(Error, v...)
}

func (l *Logger) Warn(v ...interface{}) {
	l.log(Warn, v...)
}

func (l *Logger) Fatal(v ...interface{}) {
	l.log(Fatal, v...)
	l.Close()
	os.Exit(1)
}

// Close drains pending lines and closes the log file. Safe to call more than once.
func (l *Logger) Close() {
	if l.m != nil {
		l.m.close()
	}
}

func (t Types) String() string {
	switch t {
	case Info:
		return "INFO"
	case Error:
		return "ERROR"
	case Warn:
		return "WARN"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
