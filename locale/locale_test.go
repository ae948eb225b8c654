package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestDetect(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		message string
		want    language.Tag
	}{
		{"english", "I want three lessons", language.English},
		{"empty", "", language.English},
		{"digits", "42", language.English},
		{"chinese", "我想创建一门课程", language.Chinese},
		{"japanese kana", "レッスンは３つです", language.Japanese},
		{"korean", "세 개의 수업", language.Korean},
		{"russian", "Три урока, пожалуйста", language.Russian},
		{"arabic", "ثلاثة دروس", language.Arabic},
		{"greek", "τρία μαθήματα", language.Greek},
		{"hebrew", "שלושה שיעורים", language.Hebrew},
		{"thai", "สามบทเรียน", language.Thai},
		{"hindi", "तीन पाठ", language.Hindi},
		{"mostly english with one han rune", "call it 茶 please", language.Chinese},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Detect(tc.message))
		})
	}
}

func TestDetectHanTakesPriorityOverKana(t *testing.T) {
	t.Parallel()
	// Mixed Han and kana resolves by the fixed priority order.
	assert.Equal(t, language.Chinese, Detect("日本語のレッスン"))
}

func TestDetectString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "zh", DetectString("你好"))
	assert.Equal(t, "en", DetectString("hello"))
}
