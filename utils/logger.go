package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger 追加式文件日志，进程内长期持有文件句柄
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// NewLogger 打开logDir下的日志文件，目录不存在时先创建
func NewLogger(logDir, logFileName string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %v", err)
	}

	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %v", err)
	}

	return &Logger{file: file}, nil
}

// write 追加一行带时间戳和级别的日志，并发写入由互斥锁保护
func (l *Logger) write(level string, format string, args ...interface{}) error {
	line := fmt.Sprintf("%s [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("写入日志失败: %v", err)
	}
	return nil
}

// Info 记录运行日志
func (l *Logger) Info(format string, args ...interface{}) error {
	return l.write("INFO", format, args...)
}

// Error 记录错误日志
func (l *Logger) Error(format string, args ...interface{}) error {
	return l.write("ERROR", format, args...)
}

// Access 记录请求访问日志
func (l *Logger) Access(format string, args ...interface{}) error {
	return l.write("ACCESS", format, args...)
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
