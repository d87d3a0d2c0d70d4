package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"
)

// TrustedSubnetMiddleware создаёт middleware для служебных маршрутов:
// доступ разрешён только из доверенной подсети. IP клиента берётся из
// заголовка X-Real-IP, подсеть задаётся в CIDR-нотации.
func TrustedSubnetMiddleware(trustedSubnet string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Пустая подсеть означает, что служебные маршруты закрыты
			if trustedSubnet == "" {
				logger.Warn("Access denied: trusted subnet is not configured",
					zap.String("uri", r.RequestURI),
					zap.String("remote_addr", r.RemoteAddr))
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			_, network, err := net.ParseCIDR(trustedSubnet)
			if err != nil {
				logger.Error("Invalid trusted subnet CIDR",
					zap.String("trusted_subnet", trustedSubnet), zap.Error(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			clientIP := net.ParseIP(r.Header.Get("X-Real-IP"))
			if clientIP == nil || !network.Contains(clientIP) {
				logger.Warn("Access denied: IP not in trusted subnet",
					zap.String("uri", r.RequestURI),
					zap.String("client_ip", r.Header.Get("X-Real-IP")),
					zap.String("remote_addr", r.RemoteAddr))
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
