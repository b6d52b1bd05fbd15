package usecase

import (
	"math"
	"strings"

	"crm-call-insights/internal/domain/model"
)

// Deterministic fallback classification for when the scoring model is
// unavailable or returns garbage. Keyword tables are matched against the
// lowercased transcript; calls are predominantly Russian, with a few English
// equivalents mixed in for CRM tenants that run bilingual lines.

var misroutePhrases = []string{
	"не туда", "ошибл", "куда я попал", "не та компания", "wrong number",
}

var supportPhrases = []string{
	"статус заказа", "мой заказ", "доставк", "не работает", "сломал",
	"проблем", "жалоб", "верн", "возврат", "ремонт", "support",
}

var salesPhrases = []string{
	"цен", "стоимост", "сколько стоит", "купить", "заказать", "оформить",
	"оплат", "счет", "счёт", "прайс", "скидк", "price", "buy",
}

var infoPhrases = []string{
	"подскаж", "узнать", "интересу", "вопрос", "информаци", "режим работы",
	"адрес", "как добраться",
}

// heuristicIntent resolves intent by precedence; first match wins.
func heuristicIntent(text string, durationSec, shortCallSec int) model.CallIntent {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "":
		return model.IntentUnknown
	case durationSec > 0 && durationSec <= shortCallSec:
		return model.IntentShort
	case containsAny(t, misroutePhrases):
		return model.IntentMisroute
	case containsAny(t, supportPhrases):
		return model.IntentSupport
	case containsAny(t, salesPhrases):
		return model.IntentSales
	case containsAny(t, infoPhrases):
		return model.IntentInfo
	default:
		return model.IntentSupport
	}
}

var sentimentStrongNegative = []string{
	"возмущ", "ужас", "отврат", "никогда больше", "обман", "мошенн",
}

var sentimentNegative = []string{
	"недоволь", "жалоб", "плохо", "безобраз", "долго жду", "надоел",
}

var sentimentMildNegative = []string{
	"не устраив", "дорого", "сомнева", "не уверен",
}

var sentimentPositive = []string{
	"спасибо", "благодар", "отлично", "супер", "замечатель", "довол",
}

// heuristicSentiment buckets into {-3,-2,-1,0,+2}. The gaps at +1 and +3 are
// inherited behavior and deliberate; do not fill them in.
func heuristicSentiment(text string) int {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, sentimentStrongNegative):
		return -3
	case containsAny(t, sentimentNegative):
		return -2
	case containsAny(t, sentimentMildNegative):
		return -1
	case containsAny(t, sentimentPositive):
		return 2
	default:
		return 0
	}
}

// dimensionRule scores one rubric dimension: `hit` when any phrase is found,
// `miss` otherwise. A few rules invert (fillers drag clarity down).
type dimensionRule struct {
	phrases []string
	hit     int
	miss    int
	invert  bool
}

var dimensionRules = map[string]dimensionRule{
	"greeting":   {phrases: []string{"здравств", "добрый день", "добрый вечер", "доброе утро"}, hit: 6, miss: 3},
	"rapport":    {phrases: []string{"чем могу помочь", "как я могу", "рад помочь", "конечно"}, hit: 6, miss: 3},
	"needs":      {phrases: []string{"что именно", "какой", "уточн", "правильно понимаю"}, hit: 6, miss: 3},
	"value":      {phrases: []string{"преимуществ", "выгодн", "скидк", "акци", "в подарок"}, hit: 6, miss: 3},
	"objections": {phrases: []string{"понимаю вас", "согласен", "давайте разберемся", "давайте разберёмся"}, hit: 6, miss: 3},
	"next_step":  {phrases: []string{"перезвон", "отправлю", "договорил", "запишу вас", "счет выставлю"}, hit: 6, miss: 3},
	"closing":    {phrases: []string{"до свидания", "всего доброго", "хорошего дня", "будем ждать"}, hit: 6, miss: 3},
	"clarity":    {phrases: []string{"эээ", "как бы", "короче", "ну вот"}, hit: 3, miss: 6, invert: true},
	"compliance": {phrases: []string{"меня зовут", "компани"}, hit: 6, miss: 3},
}

// heuristicDimensions scores all nine rubric dimensions.
func heuristicDimensions(text string) map[string]int {
	t := strings.ToLower(text)
	scores := make(map[string]int, len(model.ScoreDimensions))
	for _, dim := range model.ScoreDimensions {
		rule := dimensionRules[dim]
		if containsAny(t, rule.phrases) {
			scores[dim] = rule.hit
		} else {
			scores[dim] = rule.miss
		}
	}
	return scores
}

// totalFromDimensions maps the 0-10 dimension mean onto the 0-100 scale.
func totalFromDimensions(scores map[string]int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, v := range scores {
		sum += v
	}
	mean := float64(sum) / float64(len(scores))
	return int(math.Round(mean * 10))
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
