package service

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tempizhere/goredirect/internal/models"
)

// Outcome определяет результат проверки политики ссылки
type Outcome int

const (
	// OutcomeAllowed разрешает редирект
	OutcomeAllowed Outcome = iota
	// OutcomeDisabled означает, что ссылка выключена владельцем
	OutcomeDisabled
	// OutcomeExpired означает, что срок действия ссылки истёк
	OutcomeExpired
	// OutcomeMissingDestination означает, что у записи нет адреса назначения
	OutcomeMissingDestination
)

// Decision содержит решение политики по ссылке. StatusCode и PrivacyMode
// заполняются только при OutcomeAllowed.
type Decision struct {
	Outcome     Outcome
	StatusCode  int
	PrivacyMode bool
}

// millisThreshold разделяет unix-секунды и unix-миллисекунды
// в значении срока действия
const millisThreshold = int64(1_000_000_000_000)

// Evaluate проверяет политику ссылки. Функция чистая, порядок проверок
// фиксирован: отсутствие адреса назначения, затем выключенность,
// затем срок действия.
func Evaluate(link models.Link, now time.Time) Decision {
	if strings.TrimSpace(link.DestinationURL) == "" {
		return Decision{Outcome: OutcomeMissingDestination}
	}
	if !link.Enabled {
		return Decision{Outcome: OutcomeDisabled}
	}
	if expiresAt, ok := ParseExpiry(link.ExpiresAt); ok && now.After(expiresAt) {
		return Decision{Outcome: OutcomeExpired}
	}

	status := http.StatusFound
	if link.RedirectKind == models.RedirectPermanent {
		status = http.StatusMovedPermanently
	}
	return Decision{
		Outcome:     OutcomeAllowed,
		StatusCode:  status,
		PrivacyMode: link.PrivacyMode,
	}
}

// ParseExpiry нормализует срок действия ссылки. Принимает unix-секунды,
// unix-миллисекунды и ISO-8601. Пустое или непарсящееся значение
// трактуется как отсутствие срока.
func ParseExpiry(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n >= millisThreshold {
			return time.UnixMilli(n), true
		}
		return time.Unix(n, 0), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
