package middleware

//proxy.go
import (
	"net"
	"net/http"
	"strings"
)

// TrustedProxy проверяет, что запросы поступают от доверенных прокси (IP или CIDR),
// и выставляет схему из X-Forwarded-Proto (OWASP A05: Security Misconfiguration)
func TrustedProxy(trustedIPs []string) func(http.Handler) http.Handler {
	trusted := parseNets(trustedIPs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Извлекает IP клиента из RemoteAddr
			clientIP, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil || clientIP == "" {
				http.Error(w, "Неверный адрес клиента", http.StatusBadRequest)
				return
			}
			ip := net.ParseIP(clientIP)
			if ip == nil {
				http.Error(w, "Неверный IP", http.StatusBadRequest)
				return
			}

			if !contains(trusted, ip) {
				http.Error(w, "Недоверенный прокси", http.StatusForbidden)
				return
			}

			if strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https") {
				r.URL.Scheme = "https"
			} else {
				r.URL.Scheme = "http"
			}

			next.ServeHTTP(w, r)
		})
	}
}

// parseNets разбирает список; одиночный IP превращается в сеть /32 или /128.
// Некорректные записи отсекает валидация конфига.
func parseNets(list []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if _, n, err := net.ParseCIDR(s); err == nil {
			nets = append(nets, n)
			continue
		}
		if ip := net.ParseIP(s); ip != nil {
			bits := 8 * net.IPv6len
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
		}
	}
	return nets
}

func contains(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
