package alerts

import (
	"fmt"
	"strings"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/moex"
)

// descriptions человекочитаемые названия типов алертов AlgoPack.
// Неизвестный тип публикуется под своим техническим именем.
var descriptions = map[string]string{
	"vol_s_99_9_pctl":       "Крупная продажа",
	"vol_b_99_9_pctl":       "Крупная покупка",
	"vol_s_99_pctl":         "Большой объем продаж",
	"vol_b_99_pctl":         "Большой объем покупок",
	"vol_99_9_pctl":         "Крупная сделка",
	"vol_s_95_pctl":         "Повышенный объем продаж",
	"vol_b_95_pctl":         "Повышенный объем покупок",
	"net_vol_99_9_pctl-":    "Большой объем торгов",
	"pr_change_99_9_pctl-":  "Сильное падение цены",
	"net_vol_99_9_pctl+":    "Крупная покупка",
	"pr_change_99_9_pctl+":  "Сильное изменение цены",
	"vol_max":               "Максимальный объем",
	"vol_s_max":             "Максимальная продажа",
	"pr_change_min":         "Максимальное падение цены",
	"pr_change_max":         "Максимальный рост цены",
	"net_vol_max":           "Максимальный объем(net)",
	"vol_b_max":             "Максимальная покупка",
	"pr_low_min":            "Минимальная цена",
	"net_vol_min":           "Крупная продажа(net)",
	"pr_high_max":           "Максимальная цена",
}

// Description возвращает человекочитаемое название типа алерта.
func Description(alertType string) string {
	if desc, ok := descriptions[alertType]; ok {
		return desc
	}
	return alertType
}

// FormatValue форматирует значение алерта по его типу: ценовые алерты
// в рублях, изменения в процентах, остальные в лотах.
func FormatValue(value float64, alertType string) string {
	switch {
	case alertType == "pr_low_min" || alertType == "pr_high_max":
		return fmt.Sprintf("%.2f ₽", value)
	case strings.Contains(alertType, "change"):
		return fmt.Sprintf("%.2f%%", value)
	default:
		return fmt.Sprintf("%d лот", int(value))
	}
}

// formatProbability собирает строку статистики за 15 минут: изменение цены
// и счетчики повышений и понижений. Хвостовые нули процента обрезаются.
func formatProbability(a moex.Alert) string {
	if len(a.M15) < 5 {
		return ""
	}

	percent := fmt.Sprintf("%.2f%%", a.ChangePercent())
	if strings.HasSuffix(percent, ".00%") {
		percent = strings.TrimSuffix(percent, ".00%") + "%"
	} else if strings.HasSuffix(percent, "0%") {
		percent = percent[:len(percent)-2] + "%"
	}

	return fmt.Sprintf("%s ↑%d ↓%d", percent, a.UpCount(), a.DownCount())
}

// FormatAlert собирает HTML-сообщение алерта для публикации в канал.
func FormatAlert(a moex.Alert) string {
	return fmt.Sprintf(
		"🚨 <b>%s</b>\n"+
			"📊 <b>Тикер:</b> %s\n"+
			"⏰ <b>Время:</b> %s\n"+
			"📈 <b>Значение:</b> %s (порог: %s)\n"+
			"📊 <b>Статистика 15 мин:</b> %s\n"+
			"🔍 <b>Продажи:</b> %d лот | <b>Покупки:</b> %d лот",
		Description(a.Type),
		a.Ticker,
		a.Time,
		FormatValue(a.Value, a.Type),
		FormatValue(a.Threshold, a.Type),
		formatProbability(a),
		int(a.VolSell),
		int(a.VolBuy),
	)
}
