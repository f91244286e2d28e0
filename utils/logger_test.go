package utils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// TestLoggerWritesLevelledLines 不同级别写入同一文件并带级别标记
func TestLoggerWritesLevelledLines(t *testing.T) {
	logDir := t.TempDir()
	logger, err := NewLogger(logDir, "app.log")
	if err != nil {
		t.Fatalf("创建日志器失败: %v", err)
	}
	defer logger.Close()

	if err := logger.Info("服务启动于端口 %s", "8000"); err != nil {
		t.Fatalf("写入INFO失败: %v", err)
	}
	if err := logger.Error("连接失败: %v", "timeout"); err != nil {
		t.Fatalf("写入ERROR失败: %v", err)
	}
	if err := logger.Access("IP: %s, 路径: %s", "127.0.0.1", "/api/health"); err != nil {
		t.Fatalf("写入ACCESS失败: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(logDir, "app.log"))
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	text := string(content)

	for _, want := range []string{"[INFO] 服务启动于端口 8000", "[ERROR] 连接失败: timeout", "[ACCESS] IP: 127.0.0.1"} {
		if !strings.Contains(text, want) {
			t.Errorf("日志中缺少 %q:\n%s", want, text)
		}
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) != 3 {
		t.Errorf("应写入3行日志，实际 %d", len(lines))
	}
}

// TestLoggerAppendsAcrossReopen 重新打开后追加而不是覆盖
func TestLoggerAppendsAcrossReopen(t *testing.T) {
	logDir := t.TempDir()

	logger, err := NewLogger(logDir, "access.log")
	if err != nil {
		t.Fatalf("创建日志器失败: %v", err)
	}
	logger.Info("第一条")
	logger.Close()

	logger, err = NewLogger(logDir, "access.log")
	if err != nil {
		t.Fatalf("重新打开日志器失败: %v", err)
	}
	logger.Info("第二条")
	logger.Close()

	content, _ := os.ReadFile(filepath.Join(logDir, "access.log"))
	if !strings.Contains(string(content), "第一条") || !strings.Contains(string(content), "第二条") {
		t.Errorf("重新打开应保留历史日志: %s", content)
	}
}

// TestLoggerConcurrentWrites 并发写入不丢行
func TestLoggerConcurrentWrites(t *testing.T) {
	logDir := t.TempDir()
	logger, err := NewLogger(logDir, "app.log")
	if err != nil {
		t.Fatalf("创建日志器失败: %v", err)
	}
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("并发写入 %d", n)
		}(i)
	}
	wg.Wait()

	content, _ := os.ReadFile(filepath.Join(logDir, "app.log"))
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 20 {
		t.Errorf("应写入20行，实际 %d", len(lines))
	}
}
