package usecase

import (
	"testing"

	"crm-call-insights/internal/domain/model"
)

func TestHeuristicIntentPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		duration int
		want     model.CallIntent
	}{
		{"empty transcript", "", 90, model.IntentUnknown},
		{"duration wins over keywords", "Хочу купить ваш продукт", 10, model.IntentShort},
		{"misroute beats sales", "Ой, я не туда попал, хотел купить пиццу", 90, model.IntentMisroute},
		{"support beats sales", "У меня сломался товар, хочу купить запчасть", 90, model.IntentSupport},
		{"plain info", "Подскажите ваш адрес", 90, model.IntentInfo},
		{"no keywords defaults to support", "Переключите меня на Ивана Петровича", 90, model.IntentSupport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := heuristicIntent(tc.text, tc.duration, 25); got != tc.want {
				t.Fatalf("heuristicIntent(%q, %d) = %s, want %s", tc.text, tc.duration, got, tc.want)
			}
		})
	}
}

func TestHeuristicDimensionsScoreAllNine(t *testing.T) {
	scores := heuristicDimensions("Здравствуйте, меня зовут Анна, компания Ромашка. Чем могу помочь?")

	if len(scores) != len(model.ScoreDimensions) {
		t.Fatalf("scored %d dimensions, want %d", len(scores), len(model.ScoreDimensions))
	}
	if scores["greeting"] != 6 {
		t.Fatalf("greeting = %d, want 6 (greeting phrase present)", scores["greeting"])
	}
	if scores["compliance"] != 6 {
		t.Fatalf("compliance = %d, want 6 (name and company stated)", scores["compliance"])
	}
	if scores["next_step"] != 3 {
		t.Fatalf("next_step = %d, want 3 (no follow-up agreed)", scores["next_step"])
	}
}

func TestClarityPenalizedForFillers(t *testing.T) {
	clean := heuristicDimensions("Здравствуйте, слушаю вас.")
	sloppy := heuristicDimensions("Ну вот, эээ, как бы, короче, слушайте.")

	if clean["clarity"] != 6 {
		t.Fatalf("clean clarity = %d, want 6", clean["clarity"])
	}
	if sloppy["clarity"] != 3 {
		t.Fatalf("filler-heavy clarity = %d, want 3", sloppy["clarity"])
	}
}

func TestTotalFromDimensions(t *testing.T) {
	all6 := map[string]int{}
	for _, dim := range model.ScoreDimensions {
		all6[dim] = 6
	}
	if got := totalFromDimensions(all6); got != 60 {
		t.Fatalf("uniform 6s total = %d, want 60", got)
	}
	if got := totalFromDimensions(nil); got != 0 {
		t.Fatalf("empty dimensions total = %d, want 0", got)
	}

	mixed := map[string]int{"a": 6, "b": 3}
	// mean 4.5 maps to 45 on the 0-100 scale
	if got := totalFromDimensions(mixed); got != 45 {
		t.Fatalf("mixed total = %d, want 45", got)
	}
}
