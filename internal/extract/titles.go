package extract

import "math/rand/v2"

// fallbackTitles is the fixed local list used when title generation is
// unavailable or fails.  A session must always end up with some title
// when the shop owner leaves the field blank.
var fallbackTitles = []string{
	"오늘 뭐 먹지?",
	"다 같이 주문해요",
	"점심 메이트 모집",
	"배고픈 사람 여기 붙어라",
	"커피 한 잔의 여유",
	"단체 주문 출발!",
	"오늘의 간식 타임",
	"같이 시켜요, 같이 먹어요",
}

// FallbackTitle picks one of the pre-written playful titles.
func FallbackTitle() string {
	return fallbackTitles[rand.IntN(len(fallbackTitles))]
}
