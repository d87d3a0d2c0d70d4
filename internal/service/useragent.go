package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/tempizhere/goredirect/internal/models"
)

// DefaultCountry подставляется при отсутствии geo-заголовка в запросе
const DefaultCountry = "unknown"

var botMarkers = []string{"bot", "crawler", "spider", "slurp", "curl", "wget", "python-requests", "headless"}

var tabletMarkers = []string{"ipad", "tablet", "kindle", "silk"}

var mobileMarkers = []string{"mobi", "iphone", "android", "phone"}

var desktopMarkers = []string{"windows", "macintosh", "x11", "linux", "cros"}

// ClassifyDevice определяет класс устройства по User-Agent.
// Планшеты проверяются раньше мобильных: их User-Agent часто содержит
// и планшетные, и мобильные маркеры одновременно.
func ClassifyDevice(userAgent string) models.DeviceClass {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return models.DeviceUnknown
	}

	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return models.DeviceBot
		}
	}
	for _, marker := range tabletMarkers {
		if strings.Contains(ua, marker) {
			return models.DeviceTablet
		}
	}
	// Android без слова "mobile" считается планшетом
	if strings.Contains(ua, "android") && !strings.Contains(ua, "mobile") {
		return models.DeviceTablet
	}
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return models.DeviceMobile
		}
	}
	for _, marker := range desktopMarkers {
		if strings.Contains(ua, marker) {
			return models.DeviceDesktop
		}
	}
	return models.DeviceUnknown
}

// NormalizeCountry приводит код страны из geo-заголовка к верхнему регистру.
// Пустое значение и заглушка "XX" заменяются на DefaultCountry.
func NormalizeCountry(raw string) string {
	country := strings.ToUpper(strings.TrimSpace(raw))
	if country == "" || country == "XX" {
		return DefaultCountry
	}
	return country
}

// HashIP возвращает усечённый SHA-256 хэш IP-адреса для анонимной аналитики
func HashIP(ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:16]
}
