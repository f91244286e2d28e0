package utils

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/webp"
)

// SaveRawFile 保存原始字节到media目录下的子目录，返回相对路径
func SaveRawFile(mediaDir, subDir, filename string, data []byte) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("文件名为空")
	}

	fullDir := filepath.Join(mediaDir, subDir)
	if err := os.MkdirAll(fullDir, 0755); err != nil {
		return "", fmt.Errorf("创建目录失败: %v", err)
	}

	relPath := filepath.Join(subDir, filename)
	fullPath := filepath.Join(mediaDir, relPath)
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("写入文件失败: %v", err)
	}

	return relPath, nil
}

// RemoveMediaFile 删除media目录下的文件
func RemoveMediaFile(mediaDir, relPath string) error {
	if relPath == "" {
		return nil
	}
	return os.Remove(filepath.Join(mediaDir, relPath))
}

// ProbeImageDimensions 探测图片尺寸，支持jpeg/png/webp，非图片返回(0, 0)
func ProbeImageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return cfg.Width, cfg.Height
	}

	// jpeg/png解码失败时尝试webp
	webpCfg, err := webp.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return webpCfg.Width, webpCfg.Height
	}

	return 0, 0
}
