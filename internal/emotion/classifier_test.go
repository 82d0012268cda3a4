package emotion

import (
	"testing"

	"github.com/mindflow/mindflow/internal/models"
)

func TestClassifyEmptyTextIsNeutral(t *testing.T) {
	got := Classify("")
	want := Neutral()
	if got != want {
		t.Errorf("Classify(\"\") = %+v, want %+v", got, want)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	text := "我最近很焦虑，工作压力太大了"
	first := Classify(text)
	second := Classify(text)
	if first != second {
		t.Errorf("same text classified differently: %+v vs %+v", first, second)
	}
}

func TestClassifyPositiveJoy(t *testing.T) {
	got := Classify("我今天很开心")

	if got.Category != models.EmotionPositive {
		t.Errorf("category = %s, want positive", got.Category)
	}
	if got.SubCategory != "joy" {
		t.Errorf("sub-category = %s, want joy", got.SubCategory)
	}
	// "很" is a high-intensity modifier.
	if got.Intensity != models.IntensityHigh {
		t.Errorf("intensity = %s, want high", got.Intensity)
	}
	if got.Dimensions.Valence != 1 {
		t.Errorf("valence = %v, want 1", got.Dimensions.Valence)
	}
}

func TestClassifyNegativeAnxiety(t *testing.T) {
	got := Classify("我有点焦虑和担心")

	if got.Category != models.EmotionNegative {
		t.Errorf("category = %s, want negative", got.Category)
	}
	if got.SubCategory != "anxiety" {
		t.Errorf("sub-category = %s, want anxiety", got.SubCategory)
	}
	if got.Intensity != models.IntensityModerate {
		t.Errorf("intensity = %s, want moderate", got.Intensity)
	}
	if got.Dimensions.Valence != -1 {
		t.Errorf("valence = %v, want -1", got.Dimensions.Valence)
	}
}

func TestCategoryTieBreaks(t *testing.T) {
	// Equal positive and negative tallies resolve to positive.
	got := Classify("开心难过")
	if got.Category != models.EmotionPositive {
		t.Errorf("positive/negative tie resolved to %s, want positive", got.Category)
	}

	// Neutral wins any non-strict tie.
	got = Classify("平静开心")
	if got.Category != models.EmotionNeutral {
		t.Errorf("neutral/positive tie resolved to %s, want neutral", got.Category)
	}
	if got.SubCategory != "calm" {
		t.Errorf("sub-category = %s, want calm", got.SubCategory)
	}
}

func TestCrossCategoryKeywordScoresBothSides(t *testing.T) {
	// 平和 is listed under positive/peace and neutral/calm, yielding a
	// 1-1 tie that the neutral seed wins.
	got := Classify("平和")
	if got.Category != models.EmotionNeutral {
		t.Errorf("category = %s, want neutral", got.Category)
	}
	if got.SubCategory != "calm" {
		t.Errorf("sub-category = %s, want calm", got.SubCategory)
	}
	if got.Dimensions.Valence != 0.5 {
		t.Errorf("valence = %v, want 0.5 (one positive of two hits)", got.Dimensions.Valence)
	}
}

func TestDuplicateListEntryScoresDouble(t *testing.T) {
	// 憧憬 appears twice under hope, so a single occurrence counts two
	// points and outweighs the two negative hits on the tie-break.
	got := Classify("我憧憬未来，但也难过伤心")
	if got.Category != models.EmotionPositive {
		t.Errorf("category = %s, want positive", got.Category)
	}
	if got.SubCategory != "hope" {
		t.Errorf("sub-category = %s, want hope", got.SubCategory)
	}
	if got.Dimensions.Valence != 0 {
		t.Errorf("valence = %v, want 0 for a 2-2 split", got.Dimensions.Valence)
	}
}

func TestIntensityLastMatchWins(t *testing.T) {
	// Both a high and a low intensifier appear; the low rule is scanned
	// last so it wins.
	got := Classify("非常轻微的难过")
	if got.Intensity != models.IntensityLow {
		t.Errorf("intensity = %s, want low", got.Intensity)
	}

	// 略微 is listed as both a moderate and a low intensifier; the low
	// rule is scanned last, so it resolves to low.
	got = Classify("略微难过")
	if got.Intensity != models.IntensityLow {
		t.Errorf("dual-listed intensifier: intensity = %s, want low", got.Intensity)
	}
}

func TestArousalHighBeatsLow(t *testing.T) {
	got := Classify("我一会儿激动一会儿平静")
	if got.Dimensions.Arousal != models.LevelHigh {
		t.Errorf("arousal = %s, want high", got.Dimensions.Arousal)
	}
}

func TestStabilityFluctuating(t *testing.T) {
	got := Classify("我的心情起伏很大")
	if got.Dimensions.Stability != models.StabilityFluctuating {
		t.Errorf("stability = %s, want fluctuating", got.Dimensions.Stability)
	}
}

func TestValenceMixedText(t *testing.T) {
	// One positive, one negative and one neutral hit: (1-1)/3 = 0.
	got := Classify("开心难过又平静")
	if got.Dimensions.Valence != 0 {
		t.Errorf("valence = %v, want 0", got.Dimensions.Valence)
	}
}
