// Package access содержит чистую логику определения уровня доступа
// пользователя к закрытому каналу. Пакет не обращается к хранилищу и
// внешним сервисам: решение принимается по переданным данным и времени.
package access

import (
	"time"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/models"
)

// Kind уровень доступа пользователя.
type Kind string

const (
	// None доступа нет.
	None Kind = "none"
	// Trial действует пробный период.
	Trial Kind = "trial"
	// Subscribed действует оплаченная подписка.
	Subscribed Kind = "subscribed"
)

// Tier текущий уровень доступа. Until заполнено для Trial и Subscribed.
type Tier struct {
	Kind  Kind      `json:"kind"`
	Until time.Time `json:"until,omitempty"`
}

// HasAccess сообщает, открыт ли пользователю доступ к каналу.
func (t Tier) HasAccess() bool {
	return t.Kind != None
}

// Evaluator вычисляет уровень доступа по записи пользователя и его подпискам.
type Evaluator struct {
	TrialPeriod time.Duration
}

// Evaluate возвращает текущий уровень доступа и список идентификаторов
// протухших подписок: строк со статусом active, срок которых уже прошел,
// но статус еще не обновлен. Правила:
//   - забаненный пользователь не имеет доступа, протухшие строки не собираются;
//   - активный пробный период дает Trial до trial_start + TrialPeriod,
//     истекший пробный период повторно не выдается;
//   - среди активных подписок побеждает строка с самой поздней датой
//     окончания, результат не зависит от порядка строк.
func (e Evaluator) Evaluate(user models.User, subs []models.Subscription, now time.Time) (Tier, []int) {
	if user.Banned {
		return Tier{Kind: None}, nil
	}

	if user.TrialStart != nil {
		trialEnd := user.TrialStart.Add(e.TrialPeriod)
		if now.Before(trialEnd) {
			return Tier{Kind: Trial, Until: trialEnd}, nil
		}
	}

	var best *models.Subscription
	var stale []int
	for i := range subs {
		if subs[i].Status != models.SubscriptionActive {
			continue
		}
		if subs[i].EndDate.After(now) {
			if best == nil || subs[i].EndDate.After(best.EndDate) {
				best = &subs[i]
			}
		} else {
			stale = append(stale, subs[i].ID)
		}
	}

	if best != nil {
		return Tier{Kind: Subscribed, Until: best.EndDate}, stale
	}
	return Tier{Kind: None}, stale
}

// TrialLapsed сообщает, что пробный период был активирован и уже истек.
func (e Evaluator) TrialLapsed(user models.User, now time.Time) bool {
	return user.TrialStart != nil && !now.Before(user.TrialStart.Add(e.TrialPeriod))
}
