package moex

import (
	"encoding/json"
	"fmt"
	"time"
)

// Alert нормализованная запись аномалии торгов.
type Alert struct {
	Ticker    string
	Type      string
	Date      string
	Time      string
	Timestamp time.Time
	Threshold float64
	Value     float64
	// M15 статистика за 15 минут: элементы 2 и 3 — число повышений
	// и понижений, элемент 4 — изменение цены в процентах.
	M15     []float64
	VolBuy  float64
	VolSell float64
}

// Fingerprint ключ дедупликации: один и тот же алерт приходит в каждом
// ответе за день, пока день не кончился.
func (a Alert) Fingerprint() string {
	return fmt.Sprintf("%s_%s_%s", a.Ticker, a.Time, a.Type)
}

// UpCount число повышений цены за 15 минут.
func (a Alert) UpCount() int {
	if len(a.M15) > 2 {
		return int(a.M15[2])
	}
	return 0
}

// DownCount число понижений цены за 15 минут.
func (a Alert) DownCount() int {
	if len(a.M15) > 3 {
		return int(a.M15[3])
	}
	return 0
}

// ChangePercent изменение цены за 15 минут в процентах.
func (a Alert) ChangePercent() float64 {
	if len(a.M15) > 4 {
		return a.M15[4]
	}
	return 0
}

// alertDetails вложенный JSON седьмого поля строки.
type alertDetails struct {
	M15     []*float64 `json:"m_15"`
	VolBuy  float64    `json:"vol_b"`
	VolSell float64    `json:"vol_s"`
}

// ParseRow разбирает одну строку ответа AlgoPack.
// Позиции: дата, время, тикер, тип алерта, порог, значение, детали (JSON).
// Ошибка разбора относится только к этой строке, остальной пакет
// обрабатывается дальше.
func ParseRow(row Row) (*Alert, error) {
	const op = "moex.ParseRow"

	if len(row) < 7 {
		return nil, fmt.Errorf("%s: row has %d fields", op, len(row))
	}

	date, err := asString(row[0])
	if err != nil {
		return nil, fmt.Errorf("%s: date: %w", op, err)
	}
	timeOfDay, err := asString(row[1])
	if err != nil {
		return nil, fmt.Errorf("%s: time: %w", op, err)
	}
	ticker, err := asString(row[2])
	if err != nil {
		return nil, fmt.Errorf("%s: ticker: %w", op, err)
	}
	alertType, err := asString(row[3])
	if err != nil {
		return nil, fmt.Errorf("%s: alert type: %w", op, err)
	}
	threshold, err := asFloat(row[4])
	if err != nil {
		return nil, fmt.Errorf("%s: threshold: %w", op, err)
	}
	value, err := asFloat(row[5])
	if err != nil {
		return nil, fmt.Errorf("%s: value: %w", op, err)
	}

	timestamp, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+timeOfDay, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%s: timestamp: %w", op, err)
	}

	alert := &Alert{
		Ticker:    ticker,
		Type:      alertType,
		Date:      date,
		Time:      timeOfDay,
		Timestamp: timestamp,
		Threshold: threshold,
		Value:     value,
	}

	detailsRaw, err := asString(row[6])
	if err != nil {
		return nil, fmt.Errorf("%s: details: %w", op, err)
	}
	details, err := parseDetails(detailsRaw)
	if err != nil {
		return nil, fmt.Errorf("%s: details: %w", op, err)
	}

	for _, v := range details.M15 {
		if v == nil {
			alert.M15 = append(alert.M15, 0)
		} else {
			alert.M15 = append(alert.M15, *v)
		}
	}
	alert.VolBuy = details.VolBuy
	alert.VolSell = details.VolSell

	return alert, nil
}

// parseDetails разбирает вложенный JSON. Поле приходит либо объектом,
// либо списком из одного объекта.
func parseDetails(raw string) (*alertDetails, error) {
	var details alertDetails
	if err := json.Unmarshal([]byte(raw), &details); err == nil {
		return &details, nil
	}

	var list []alertDetails
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return &alertDetails{}, nil
	}
	return &list[0], nil
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

// asFloat приводит значение к float64: числовые поля приходят
// то числом, то строкой.
func asFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(val, "%g", &f); err != nil {
			return 0, fmt.Errorf("expected number, got %q", val)
		}
		return f, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
