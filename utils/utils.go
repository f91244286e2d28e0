package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"kol_crm/config"

	"github.com/golang-jwt/jwt/v4"
)

// GenerateTokens 生成访问令牌和刷新令牌
func GenerateTokens(userID int, cfg config.Config) (string, string, error) {
	// 生成访问令牌
	expirationTime := time.Now().Add(time.Duration(cfg.JWTConfig.AccessTokenTTL) * time.Hour)
	claims := &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
		Subject:   fmt.Sprintf("%d", userID),
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedAccessToken, err := accessToken.SignedString([]byte(cfg.JWTConfig.SecretKey))
	if err != nil {
		return "", "", err
	}

	// 生成刷新令牌
	refreshExpirationTime := time.Now().Add(time.Duration(cfg.JWTConfig.RefreshTokenTTL) * time.Hour)
	refreshClaims := &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(refreshExpirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
		Subject:   fmt.Sprintf("%d", userID),
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	signedRefreshToken, err := refreshToken.SignedString([]byte(cfg.JWTConfig.SecretKey))
	if err != nil {
		return "", "", err
	}

	return signedAccessToken, signedRefreshToken, nil
}

// ParseToken 解析JWT令牌
func ParseToken(tokenString string, cfg config.Config) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTConfig.SecretKey), nil
	})

	return token, err
}

// RefreshAccessToken 只刷新访问令牌
func RefreshAccessToken(refreshTokenString string, cfg config.Config) (string, error) {
	token, err := ParseToken(refreshTokenString, cfg)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid refresh token")
	}

	// 获取用户ID
	userIDStr, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("invalid user ID in token")
	}

	var userID int
	fmt.Sscanf(userIDStr, "%d", &userID)

	// 只生成新的访问令牌
	accessToken, _, err := GenerateTokens(userID, cfg)
	if err != nil {
		return "", err
	}

	return accessToken, nil
}

// GenerateUniqueFilename 生成唯一的文件名
func GenerateUniqueFilename(originalFilename string) string {
	timestamp := time.Now().UnixNano()
	randomBytes := make([]byte, 8)
	_, err := rand.Read(randomBytes)
	if err != nil {
		// 如果生成随机数失败，只使用时间戳
		return fmt.Sprintf("%d_%s", timestamp, originalFilename)
	}

	randomStr := base64.URLEncoding.EncodeToString(randomBytes)
	// 移除base64中的特殊字符
	randomStr = removeSpecialChars(randomStr)

	return fmt.Sprintf("%d_%s_%s", timestamp, randomStr, originalFilename)
}

// removeSpecialChars 移除字符串中的特殊字符
func removeSpecialChars(s string) string {
	result := ""
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') {
			result += string(char)
		}
	}
	return result
}

// FormatDateTime 格式化时间
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// ParseDateTime 解析时间字符串
func ParseDateTime(datetimeStr string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", datetimeStr)
}

// Pagination 分页辅助函数
func Pagination(pageNum, pageSize int) (int, int) {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := (pageNum - 1) * pageSize
	return offset, pageSize
}

// CommissionAmount 计算佣金金额，四舍五入到整数（韩元）
func CommissionAmount(total, rate float64) float64 {
	return math.Round(total * rate)
}

// EffectiveRate 按行级→订单级→店铺默认的顺序确定有效佣金比例
func EffectiveRate(itemRate *float64, orderRate float64, shopDefault float64) float64 {
	if itemRate != nil && *itemRate > 0 {
		return *itemRate
	}
	if orderRate > 0 {
		return orderRate
	}
	if shopDefault > 0 {
		return shopDefault
	}
	return 0.1
}

// GrowthRate 计算环比增长率（百分比，保留1位小数），上期为0时返回0
func GrowthRate(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return math.Round((current-previous)/previous*100*10) / 10
}

// MonthRange 返回指定月份的起止时间 [start, end)
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 1, 0)
}

// ParseMonth 解析YYYY-MM格式的月份字符串，返回当月1日
func ParseMonth(monthStr string) (time.Time, error) {
	t, err := time.Parse("2006-01", monthStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("月份格式必须为YYYY-MM: %v", err)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local), nil
}

// OrderNumber 生成订单号 ORD-YYYYMMDD-NNNN，seq为当日序号
func OrderNumber(date time.Time, seq int) string {
	return fmt.Sprintf("ORD-%s-%04d", date.Format("20060102"), seq)
}

// Truncate 截断字符串到指定的字符数（按rune计）
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
